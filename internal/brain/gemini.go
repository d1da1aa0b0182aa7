package brain

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vthunder/kernel/internal/logging"
)

// DefaultModel is used when settings do not name one
const DefaultModel = "gemini-2.0-flash"

// Gemini implements Oracle over the Google Gemini API
type Gemini struct {
	client       *genai.Client
	model        string
	systemPrompt string
}

// NewGemini creates a Gemini-backed oracle. The system prompt is fixed for
// the lifetime of the oracle; settings edits require a restart to apply to
// the standing conversation.
func NewGemini(ctx context.Context, apiKey, model, systemPrompt string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrOracleUnavailable
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{client: client, model: model, systemPrompt: systemPrompt}, nil
}

// Close releases the underlying client
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Continue sends the conversation plus declared actions to the model and
// maps the response to final text or tool-call requests.
func (g *Gemini) Continue(ctx context.Context, history []Turn, actions []ActionSchema) (*Reply, error) {
	gm := g.client.GenerativeModel(g.model)
	if g.systemPrompt != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(g.systemPrompt)}}
	}
	gm.Tools = []*genai.Tool{{FunctionDeclarations: declarations(actions)}}

	contents := historyToContents(history)
	if len(contents) == 0 {
		return nil, fmt.Errorf("empty conversation")
	}

	cs := gm.StartChat()
	cs.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return parseResponse(resp)
}

// Generate performs a one-shot completion without tool declarations
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	gm := g.client.GenerativeModel(g.model)
	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	reply, err := parseResponse(resp)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

func declarations(actions []ActionSchema) []*genai.FunctionDeclaration {
	var decls []*genai.FunctionDeclaration
	for _, a := range actions {
		decl := &genai.FunctionDeclaration{
			Name:        a.Name,
			Description: a.Description,
		}
		if len(a.Params) > 0 {
			schema := &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{},
			}
			for _, p := range a.Params {
				schema.Properties[p.Name] = &genai.Schema{
					Type:        paramType(p.Type),
					Description: p.Description,
				}
				if p.Required {
					schema.Required = append(schema.Required, p.Name)
				}
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls
}

func paramType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func historyToContents(history []Turn) []*genai.Content {
	var contents []*genai.Content
	for _, turn := range history {
		switch turn.Kind {
		case TurnUser:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(turn.Text)},
			})
		case TurnAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(turn.Text)},
			})
		case TurnToolCall:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.FunctionCall{Name: turn.Call.Name, Args: turn.Call.Args}},
			})
		case TurnToolResult:
			response := map[string]any{}
			if turn.Err != "" {
				response["error"] = turn.Err
			} else {
				response["result"] = fmt.Sprintf("%v", turn.Result)
			}
			contents = append(contents, &genai.Content{
				Role:  "function",
				Parts: []genai.Part{genai.FunctionResponse{Name: turn.Call.Name, Response: response}},
			})
		}
	}
	return contents
}

func parseResponse(resp *genai.GenerateContentResponse) (*Reply, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from model")
	}

	reply := &Reply{}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			reply.Text += string(p)
		case genai.FunctionCall:
			reply.Calls = append(reply.Calls, ToolCall{Name: p.Name, Args: p.Args})
		default:
			logging.Debug("brain", "ignoring response part of type %T", part)
		}
	}
	return reply, nil
}
