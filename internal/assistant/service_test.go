package assistant

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/dentaai-platform/internal/compliance"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/internal/store"
)

type stubLLM struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []Request
}

func (s *stubLLM) Generate(_ context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.reply, s.err
}

func (s *stubLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

type fakeArchive struct {
	key string
	err error
	put []*Image
}

func (f *fakeArchive) Enabled() bool { return true }

func (f *fakeArchive) Put(_ context.Context, img *Image) (string, error) {
	f.put = append(f.put, img)
	return f.key, f.err
}

func newLogStore() *records.Client {
	return records.NewClient(store.NewMemoryStore(), nil)
}

func fixedClock() time.Time { return time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC) }

func TestAnalyzeComplaint_FillsMissingFields(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  Analysis
	}{
		{
			name:  "partial",
			reply: `{"diagnosis":"Diş çürüğü","urgency":"Yüksek"}`,
			want:  Analysis{Diagnosis: "Diş çürüğü", Urgency: records.UrgencyHigh, TreatmentSuggestion: "Lütfen kliniğimizi ziyaret edin.", RecommendedSpecialist: "Genel Diş Hekimi"},
		},
		{
			name:  "fenced",
			reply: "```json\n{\"diagnosis\":\"Diş eti iltihabı\",\"urgency\":\"Acil\",\"treatmentSuggestion\":\"Gargara\",\"recommendedSpecialist\":\"Periodontist\"}\n```",
			want:  Analysis{Diagnosis: "Diş eti iltihabı", Urgency: records.UrgencyEmergency, TreatmentSuggestion: "Gargara", RecommendedSpecialist: "Periodontist"},
		},
		{
			name:  "unknown urgency",
			reply: `{"diagnosis":"Hassasiyet","urgency":"Bilinmiyor"}`,
			want:  Analysis{Diagnosis: "Hassasiyet", Urgency: records.UrgencyMedium, TreatmentSuggestion: "Lütfen kliniğimizi ziyaret edin.", RecommendedSpecialist: "Genel Diş Hekimi"},
		},
		{
			name:  "empty reply",
			reply: "",
			want:  Analysis{Diagnosis: "Belirsiz Durum", Urgency: records.UrgencyMedium, TreatmentSuggestion: "Lütfen kliniğimizi ziyaret edin.", RecommendedSpecialist: "Genel Diş Hekimi"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &stubLLM{reply: tc.reply}
			svc := NewService(llm, newLogStore(), nil)
			got := svc.AnalyzeComplaint(context.Background(), "Dişim ağrıyor", nil)
			assert.Equal(t, tc.want, got)
			require.Len(t, llm.reqs, 1)
			assert.True(t, llm.reqs[0].JSON)
			assert.Contains(t, llm.reqs[0].Prompt, "Şikayet: Dişim ağrıyor")
		})
	}
}

func TestAnalyzeComplaint_FallbackOnFailure(t *testing.T) {
	for _, llm := range []*stubLLM{
		{err: errors.New("quota exceeded")},
		{reply: "Bu bir JSON değil"},
	} {
		svc := NewService(llm, newLogStore(), nil)
		assert.Equal(t, FallbackAnalysis(), svc.AnalyzeComplaint(context.Background(), "ağrı", nil))
	}

	svc := NewService(nil, newLogStore(), nil)
	got := svc.AnalyzeComplaint(context.Background(), "ağrı", nil)
	assert.Equal(t, records.UrgencyLow, got.Urgency)
	assert.Equal(t, "Analiz sırasında teknik bir hata oluştu.", got.Diagnosis)
}

func TestAnalyze_RecordsLogWithInlineImage(t *testing.T) {
	llm := &stubLLM{reply: `{"diagnosis":"Apse","urgency":"Acil"}`}
	logs := newLogStore()
	svc := NewService(llm, logs, nil,
		WithClock(fixedClock),
		WithDisclaimer(compliance.NewDisclaimerService(nil, compliance.DefaultDisclaimerConfig())),
	)

	raw := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	result, err := svc.Analyze(context.Background(), "  Yanağım şişti ", raw)
	require.NoError(t, err)
	assert.Equal(t, records.UrgencyEmergency, result.Urgency)
	assert.NotEmpty(t, result.LogID)
	assert.NotEmpty(t, result.Disclaimer)

	require.NotNil(t, llm.reqs[0].Image)
	assert.Equal(t, "image/jpeg", llm.reqs[0].Image.MIMEType)
	assert.Equal(t, []byte("jpeg-bytes"), llm.reqs[0].Image.Data)

	saved, err := logs.ListAILogs(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, result.LogID, saved[0].ID)
	assert.Equal(t, "Yanağım şişti", saved[0].UserComplaint)
	assert.Equal(t, records.UrgencyEmergency, saved[0].Urgency)
	assert.Equal(t, fixedClock().UnixMilli(), saved[0].Timestamp)
	assert.True(t, saved[0].HasImage)
	assert.Equal(t, raw, saved[0].ImageBase64)
	assert.JSONEq(t, `{"diagnosis":"Apse","urgency":"Acil","treatmentSuggestion":"Lütfen kliniğimizi ziyaret edin.","recommendedSpecialist":"Genel Diş Hekimi"}`, saved[0].AIResponse)
}

func TestAnalyze_ArchivesImage(t *testing.T) {
	logs := newLogStore()
	archive := &fakeArchive{key: "complaints/v1/x.jpg"}
	svc := NewService(&stubLLM{reply: `{}`}, logs, nil, WithImageArchive(archive))

	raw := base64.StdEncoding.EncodeToString([]byte("img"))
	_, err := svc.Analyze(context.Background(), "", raw)
	require.NoError(t, err)
	require.Len(t, archive.put, 1)

	saved, err := logs.ListAILogs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "complaints/v1/x.jpg", saved[0].ImageKey)
	assert.Empty(t, saved[0].ImageBase64)

	archive.err = errors.New("access denied")
	_, err = svc.Analyze(context.Background(), "", raw)
	require.NoError(t, err)
	saved, err = logs.ListAILogs(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 2)
	var inline int
	for _, l := range saved {
		if l.ImageBase64 == raw {
			inline++
		}
	}
	assert.Equal(t, 1, inline)
}

func TestAnalyze_Validation(t *testing.T) {
	svc := NewService(&stubLLM{}, newLogStore(), nil)

	_, err := svc.Analyze(context.Background(), " ", "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "complaint", verr.Field)

	_, err = svc.Analyze(context.Background(), "ağrı", "data:image/png;base64,!!!")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "image", verr.Field)
}

func TestDecodeImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("png"))

	img, err := DecodeImage("data:image/png;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, []byte("png"), img.Data)

	img, err = DecodeImage(payload)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", img.MIMEType)

	_, err = DecodeImage("data:image/png;base64,")
	assert.Error(t, err)
}

func TestGenerateArticle_CachesSuccessOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisArticleCache(client, time.Hour)
	ctx := context.Background()

	llm := &stubLLM{err: errors.New("timeout")}
	svc := NewService(llm, newLogStore(), nil, WithArticleCache(cache))
	assert.Equal(t, ArticleFailedText, svc.GenerateArticle(ctx, BlogTopics[0]))

	llm.err = nil
	assert.Equal(t, ArticleEmptyText, svc.GenerateArticle(ctx, BlogTopics[0]))

	llm.reply = "# Diş Eti Kanaması\n\nMetin"
	assert.Equal(t, llm.reply, svc.GenerateArticle(ctx, BlogTopics[0]))
	assert.Equal(t, 3, llm.calls())

	assert.Equal(t, llm.reply, svc.GenerateArticle(ctx, "  "+BlogTopics[0]+" "))
	assert.Equal(t, 3, llm.calls())
	assert.Contains(t, llm.reqs[0].Prompt, `"Diş Eti Kanaması Neden Olur?"`)
}

func TestRedisArticleCache_Expires(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := NewRedisArticleCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "Diş Beyazlatma Zararlı mı?", "metin"))
	got, ok, err := cache.Get(ctx, "diş beyazlatma zararlı mı?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "metin", got)

	mr.FastForward(defaultArticleCacheTTL + time.Minute)
	_, ok, err = cache.Get(ctx, "Diş Beyazlatma Zararlı mı?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChat(t *testing.T) {
	llm := &stubLLM{reply: "Randevu için formu doldurabilirsiniz."}
	svc := NewService(llm, newLogStore(), nil)
	history := []Turn{{Role: RoleUser, Text: "Merhaba"}, {Role: RoleModel, Text: "Merhaba, nasıl yardımcı olabilirim?"}}

	assert.Equal(t, llm.reply, svc.Chat(context.Background(), history, "Fiyatlar nedir?"))
	req := llm.reqs[0]
	assert.Contains(t, req.System, "DentaAI diş kliniğinin")
	assert.Equal(t, history, req.History)
	assert.Equal(t, "Fiyatlar nedir?", req.Prompt)

	llm.err = errors.New("unavailable")
	assert.Equal(t, ChatApologyText, svc.Chat(context.Background(), nil, "Merhaba"))

	llm.err, llm.reply = nil, "  "
	assert.Equal(t, ChatApologyText, svc.Chat(context.Background(), nil, "Merhaba"))
}

func TestComment(t *testing.T) {
	logs := newLogStore()
	svc := NewService(&stubLLM{}, logs, nil)
	ctx := context.Background()

	created, err := logs.CreateAILog(ctx, records.AIAnalysisLog{UserComplaint: "ağrı", Timestamp: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Comment(ctx, created.ID, " Kontrole gelsin. "))
	all, err := svc.Logs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kontrole gelsin.", all[0].DoctorComment)

	assert.ErrorIs(t, svc.Comment(ctx, "missing", "not"), records.ErrNotFound)
	var verr *ValidationError
	assert.ErrorAs(t, svc.Comment(ctx, created.ID, ""), &verr)
}
