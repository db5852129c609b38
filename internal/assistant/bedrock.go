package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient implements LLM on the Bedrock Converse API.
type BedrockClient struct {
	api     bedrockConverseAPI
	modelID string
}

func NewBedrockClient(api bedrockConverseAPI, modelID string) *BedrockClient {
	if api == nil {
		panic("assistant: bedrock converse client cannot be nil")
	}
	return &BedrockClient{api: api, modelID: modelID}
}

func (c *BedrockClient) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(c.modelID) == "" {
		return "", errors.New("assistant: bedrock model id is required")
	}

	var system []brtypes.SystemContentBlock
	if strings.TrimSpace(req.System) != "" {
		system = append(system, &brtypes.SystemContentBlockMemberText{Value: req.System})
	}
	if req.JSON {
		system = append(system, &brtypes.SystemContentBlockMemberText{Value: "Yanıtı yalnızca geçerli JSON olarak ver."})
	}

	messages := make([]brtypes.Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		role := brtypes.ConversationRoleUser
		if turn.Role == RoleModel {
			role = brtypes.ConversationRoleAssistant
		}
		messages = append(messages, brtypes.Message{
			Role:    role,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		})
	}

	content := []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: req.Prompt}}
	if req.Image != nil {
		content = append(content, &brtypes.ContentBlockMemberImage{Value: brtypes.ImageBlock{
			Format: bedrockImageFormat(req.Image.MIMEType),
			Source: &brtypes.ImageSourceMemberBytes{Value: req.Image.Data},
		}})
	}
	messages = append(messages, brtypes.Message{Role: brtypes.ConversationRoleUser, Content: content})

	out, err := c.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.modelID),
		System:   system,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	return bedrockOutputText(out)
}

func bedrockImageFormat(mime string) brtypes.ImageFormat {
	switch mime {
	case "image/png":
		return brtypes.ImageFormatPng
	case "image/webp":
		return brtypes.ImageFormatWebp
	case "image/gif":
		return brtypes.ImageFormatGif
	}
	return brtypes.ImageFormatJpeg
}

func bedrockOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("assistant: bedrock response is nil")
	}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("assistant: bedrock response did not include a message output")
	}
	var b strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b.WriteString(text.Value)
		}
	}
	return strings.TrimSpace(b.String()), nil
}
