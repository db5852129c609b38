package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/dentaai-platform/internal/compliance"
	"github.com/wolfman30/dentaai-platform/internal/observability/metrics"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

var tracer = otel.Tracer("dentaai.internal.assistant")

const (
	ArticleFailedText = "İçerik şu an oluşturulamıyor."
	ArticleEmptyText  = "İçerik oluşturulamadı."
	ChatApologyText   = "Üzgünüm, şu anda bağlantı kuramıyorum. Lütfen daha sonra tekrar deneyin."

	chatSystemInstruction = "Sen DentaAI diş kliniğinin yardımsever ve profesyonel sanal asistanısın. " +
		"Kullanıcıların randevu, fiyatlar ve genel diş sağlığı sorularını yanıtla. " +
		"Tıbbi teşhis koyma, sadece genel bilgi ver ve gerekirse randevuya yönlendir. Türkçe konuş."

	analysisPromptTemplate = `Sen uzman bir diş hekimi asistanı yapay zekasın.
Aşağıdaki hasta şikayetini analiz et.

Eğer bir görüntü sağlandıysa, lütfen görseldeki renk değişimlerini, şişliği, diş eti durumunu veya çürük belirtilerini DİKKATLE incele ve teşhisine dahil et.
Görüntü yoksa sadece metne odaklan.

Lütfen yanıtı SADECE aşağıdaki JSON formatında ver, başka hiçbir metin ekleme:
{
  "diagnosis": "Olası durum veya teşhis (kısa ve net açıklama, görsel bulguları içer)",
  "urgency": "Düşük" | "Orta" | "Yüksek" | "Acil",
  "treatmentSuggestion": "Evde yapılabilecekler veya klinik tedavi önerisi",
  "recommendedSpecialist": "Örnek: Ortodontist, Periodontist, Çene Cerrahı vb."
}

Şikayet: %s`

	articlePromptTemplate = `Bir diş kliniği blogu için "%s" hakkında bilgilendirici,
samimi ve SEO uyumlu 300 kelimelik Türkçe bir makale yaz.
Markdown formatında başlıklar kullan.`
)

// BlogTopics is the fixed list offered on the blog page.
var BlogTopics = []string{
	"Diş Eti Kanaması Neden Olur?",
	"İmplant Tedavisi Ağrılı mıdır?",
	"20'lik Diş Ne Zaman Çekilmeli?",
	"Çocuklarda Diş Fırçalama Alışkanlığı",
	"Diş Beyazlatma Zararlı mı?",
}

// Analysis is the structured triage of a complaint.
type Analysis struct {
	Diagnosis             string          `json:"diagnosis"`
	Urgency               records.Urgency `json:"urgency"`
	TreatmentSuggestion   string          `json:"treatmentSuggestion"`
	RecommendedSpecialist string          `json:"recommendedSpecialist"`
}

// FallbackAnalysis is returned whenever the model call or its reply fails.
func FallbackAnalysis() Analysis {
	return Analysis{
		Diagnosis:             "Analiz sırasında teknik bir hata oluştu.",
		Urgency:               records.UrgencyLow,
		TreatmentSuggestion:   "Lütfen doğrudan doktorumuzla iletişime geçin.",
		RecommendedSpecialist: "Genel Diş Hekimi",
	}
}

func (a *Analysis) fillDefaults() {
	if strings.TrimSpace(a.Diagnosis) == "" {
		a.Diagnosis = "Belirsiz Durum"
	}
	if !validUrgency(a.Urgency) {
		a.Urgency = records.UrgencyMedium
	}
	if strings.TrimSpace(a.TreatmentSuggestion) == "" {
		a.TreatmentSuggestion = "Lütfen kliniğimizi ziyaret edin."
	}
	if strings.TrimSpace(a.RecommendedSpecialist) == "" {
		a.RecommendedSpecialist = "Genel Diş Hekimi"
	}
}

func validUrgency(u records.Urgency) bool {
	switch u {
	case records.UrgencyLow, records.UrgencyMedium, records.UrgencyHigh, records.UrgencyEmergency:
		return true
	}
	return false
}

// AnalysisResult is what the pre-check endpoint returns.
type AnalysisResult struct {
	Analysis
	LogID      string `json:"logId,omitempty"`
	Disclaimer string `json:"disclaimer,omitempty"`
}

// LogStore persists analysis logs.
type LogStore interface {
	CreateAILog(ctx context.Context, l records.AIAnalysisLog) (*records.AIAnalysisLog, error)
	ListAILogs(ctx context.Context) ([]records.AIAnalysisLog, error)
	SetAILogComment(ctx context.Context, id, comment string) error
}

// Service runs every model-backed feature. Model failures never surface as
// errors; each operation has a canned reply instead.
type Service struct {
	llm        LLM
	logs       LogStore
	archive    ImageArchive
	cache      ArticleCache
	disclaimer *compliance.DisclaimerService
	metrics    *metrics.AssistantMetrics
	logger     *logging.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithImageArchive(a ImageArchive) Option { return func(s *Service) { s.archive = a } }

func WithArticleCache(c ArticleCache) Option { return func(s *Service) { s.cache = c } }

func WithDisclaimer(d *compliance.DisclaimerService) Option {
	return func(s *Service) { s.disclaimer = d }
}

func WithMetrics(m *metrics.AssistantMetrics) Option { return func(s *Service) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(llm LLM, logs LogStore, logger *logging.Logger, opts ...Option) *Service {
	if llm == nil {
		llm = Unconfigured()
	}
	if logs == nil {
		panic("assistant: log store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{llm: llm, logs: logs, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeComplaint asks the model for a structured triage.
func (s *Service) AnalyzeComplaint(ctx context.Context, complaint string, image *Image) Analysis {
	ctx, span := tracer.Start(ctx, "assistant.analyze")
	defer span.End()
	span.SetAttributes(attribute.Bool("dentaai.has_image", image != nil))
	start := time.Now()

	text, err := s.llm.Generate(ctx, Request{
		Prompt: fmt.Sprintf(analysisPromptTemplate, complaint),
		Image:  image,
		JSON:   true,
	})
	if err == nil {
		var analysis Analysis
		if analysis, err = parseAnalysis(text); err == nil {
			s.metrics.ObserveCall("analyze", "ok", time.Since(start).Seconds())
			return analysis
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "analysis fallback")
	s.logger.Warn("complaint analysis failed", "error", err)
	s.metrics.ObserveCall("analyze", "fallback", time.Since(start).Seconds())
	return FallbackAnalysis()
}

// parseAnalysis tolerates markdown code fences; an empty reply counts as "{}".
func parseAnalysis(text string) (Analysis, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		text = "{}"
	}
	var a Analysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return Analysis{}, fmt.Errorf("assistant: decode analysis: %w", err)
	}
	a.fillDefaults()
	return a, nil
}

// Analyze runs the pre-check for a complaint and optional raw image, records
// it as an AI log and attaches the medical disclaimer. Only invalid input is
// an error; a failed log write is logged and the analysis still returned.
func (s *Service) Analyze(ctx context.Context, complaint, rawImage string) (*AnalysisResult, error) {
	complaint = strings.TrimSpace(complaint)
	rawImage = strings.TrimSpace(rawImage)
	if complaint == "" && rawImage == "" {
		return nil, invalid("complaint", "Lütfen şikayetinizi yazın veya bir görsel yükleyin.")
	}
	var image *Image
	if rawImage != "" {
		img, err := DecodeImage(rawImage)
		if err != nil {
			return nil, err
		}
		image = img
	}

	analysis := s.AnalyzeComplaint(ctx, complaint, image)
	result := &AnalysisResult{Analysis: analysis}

	entry := records.AIAnalysisLog{
		UserComplaint: complaint,
		Urgency:       analysis.Urgency,
		Timestamp:     s.now().UnixMilli(),
		HasImage:      image != nil,
	}
	if raw, err := json.Marshal(analysis); err == nil {
		entry.AIResponse = string(raw)
	}
	if image != nil {
		entry.ImageBase64 = rawImage
		if s.archive != nil && s.archive.Enabled() {
			key, err := s.archive.Put(ctx, image)
			if err != nil {
				s.logger.Warn("complaint image archive failed; keeping inline copy", "error", err)
			} else {
				entry.ImageKey = key
				entry.ImageBase64 = ""
			}
		}
	}

	created, err := s.logs.CreateAILog(ctx, entry)
	if err != nil {
		s.logger.Error("failed to record ai analysis log", "error", err)
	} else {
		result.LogID = created.ID
	}
	result.Disclaimer = s.disclaimer.ForAnalysis(ctx, result.LogID)
	return result, nil
}

// GenerateArticle writes a short markdown blog post on topic. Successful
// articles are cached; canned replies are not.
func (s *Service) GenerateArticle(ctx context.Context, topic string) string {
	ctx, span := tracer.Start(ctx, "assistant.article")
	defer span.End()
	span.SetAttributes(attribute.String("dentaai.topic", topic))
	start := time.Now()

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, topic)
		if err != nil {
			s.logger.Warn("article cache read failed", "error", err)
		} else if ok {
			s.metrics.ObserveCall("article", "cached", time.Since(start).Seconds())
			return cached
		}
	}

	text, err := s.llm.Generate(ctx, Request{Prompt: fmt.Sprintf(articlePromptTemplate, topic)})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "article fallback")
		s.logger.Warn("article generation failed", "topic", topic, "error", err)
		s.metrics.ObserveCall("article", "fallback", time.Since(start).Seconds())
		return ArticleFailedText
	}
	if strings.TrimSpace(text) == "" {
		s.metrics.ObserveCall("article", "fallback", time.Since(start).Seconds())
		return ArticleEmptyText
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, topic, text); err != nil {
			s.logger.Warn("article cache write failed", "error", err)
		}
	}
	s.metrics.ObserveCall("article", "ok", time.Since(start).Seconds())
	return text
}

// Chat answers message in the context of history as the clinic's assistant.
func (s *Service) Chat(ctx context.Context, history []Turn, message string) string {
	ctx, span := tracer.Start(ctx, "assistant.chat")
	defer span.End()
	span.SetAttributes(attribute.Int("dentaai.history_len", len(history)))
	start := time.Now()

	text, err := s.llm.Generate(ctx, Request{
		System:  chatSystemInstruction,
		History: history,
		Prompt:  message,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "chat fallback")
		}
		s.logger.Warn("chat reply failed", "error", err)
		s.metrics.ObserveCall("chat", "fallback", time.Since(start).Seconds())
		return ChatApologyText
	}
	s.metrics.ObserveCall("chat", "ok", time.Since(start).Seconds())
	return text
}

// Logs returns the analysis logs newest first.
func (s *Service) Logs(ctx context.Context) ([]records.AIAnalysisLog, error) {
	return s.logs.ListAILogs(ctx)
}

// Comment stores a doctor's note on an analysis log.
func (s *Service) Comment(ctx context.Context, id, comment string) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return invalid("comment", "Yorum boş olamaz.")
	}
	return s.logs.SetAILogComment(ctx, id, comment)
}
