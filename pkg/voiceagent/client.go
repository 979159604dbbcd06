// Package voiceagent manages durable voice agents and conversation
// credentials on the ElevenLabs Conversational AI API.
package voiceagent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"acquisition-arena-be/internal/constant"
	"acquisition-arena-be/pkg/persona"
	"acquisition-arena-be/pkg/result"
	"acquisition-arena-be/pkg/transcript"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io/v1"
	DefaultTimeout = 15 * time.Second
)

// Unit is the value of a successful call that returns nothing.
type Unit = struct{}

type Client struct {
	BaseURL string
	ApiKey  string
	Timeout time.Duration
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		ApiKey:  apiKey,
		Timeout: timeout,
		HTTP:    &http.Client{},
	}
}

// --- Wire types ---

// AgentRequest is the create/update body of a durable agent.
type AgentRequest struct {
	Name               string             `json:"name"`
	ConversationConfig conversationConfig `json:"conversation_config"`
}

type conversationConfig struct {
	Agent        agentSection        `json:"agent"`
	TTS          ttsSection          `json:"tts"`
	Conversation conversationSection `json:"conversation"`
}

type agentSection struct {
	Prompt           promptSection    `json:"prompt"`
	FirstMessage     string           `json:"first_message,omitempty"`
	Language         string           `json:"language"`
	DynamicVariables dynamicVariables `json:"dynamic_variables"`
}

type promptSection struct {
	Prompt string       `json:"prompt"`
	Tools  []systemTool `json:"tools,omitempty"`
}

type systemTool struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type dynamicVariables struct {
	Placeholders map[string]string `json:"dynamic_variable_placeholders"`
}

type ttsSection struct {
	VoiceID       string                `json:"voice_id"`
	VoiceSettings persona.VoiceSettings `json:"voice_settings"`
}

type conversationSection struct {
	TurnDetection turnDetection `json:"turn_detection"`
}

type turnDetection struct {
	Type string `json:"type"`
}

type createAgentResponse struct {
	AgentID string `json:"agent_id"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type conversationResponse struct {
	ConversationID string           `json:"conversation_id"`
	Status         string           `json:"status"`
	Transcript     []transcriptTurn `json:"transcript"`
}

type transcriptTurn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Conversation is a finished (or in-progress) exchange as reported upstream.
type Conversation struct {
	ID     string
	Status string
	Turns  []transcript.Turn
}

// AgentPayload builds the create/update body for a compiled persona.
func AgentPayload(cfg persona.AgentConfig) AgentRequest {
	return AgentRequest{
		Name: cfg.AgentName,
		ConversationConfig: conversationConfig{
			Agent: agentSection{
				Prompt: promptSection{
					Prompt: cfg.SystemPrompt,
					Tools: []systemTool{{
						Type:        "system",
						Name:        constant.EndCallToolName,
						Description: constant.EndCallToolDescription,
					}},
				},
				FirstMessage: cfg.FirstMessage,
				Language:     cfg.Language,
				DynamicVariables: dynamicVariables{
					Placeholders: map[string]string{constant.ParcelDynamicVariable: ""},
				},
			},
			TTS: ttsSection{
				VoiceID:       cfg.VoiceID,
				VoiceSettings: cfg.VoiceSettings,
			},
			Conversation: conversationSection{
				TurnDetection: turnDetection{Type: "server_vad"},
			},
		},
	}
}

// --- Operations ---

func (c *Client) CreateAgent(ctx context.Context, cfg persona.AgentConfig) result.Result[string] {
	var out createAgentResponse
	if err := c.do(ctx, http.MethodPost, "/convai/agents/create", nil, AgentPayload(cfg), &out); err != nil {
		return result.FromError[string]("create agent", err)
	}
	if out.AgentID == "" {
		return result.Err[string](result.KindDecode, "create agent: response has no agent_id", nil)
	}
	return result.Ok(out.AgentID)
}

func (c *Client) UpdateAgent(ctx context.Context, agentID string, cfg persona.AgentConfig) result.Result[Unit] {
	if agentID == "" {
		return result.Err[Unit](result.KindCaller, "update agent: empty agent id", nil)
	}
	if err := c.do(ctx, http.MethodPatch, "/convai/agents/"+url.PathEscape(agentID), nil, AgentPayload(cfg), nil); err != nil {
		return result.FromError[Unit]("update agent", err)
	}
	return result.Ok(Unit{})
}

// DeleteAgent treats an already-missing agent as deleted.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) result.Result[Unit] {
	if agentID == "" {
		return result.Err[Unit](result.KindCaller, "delete agent: empty agent id", nil)
	}
	err := c.do(ctx, http.MethodDelete, "/convai/agents/"+url.PathEscape(agentID), nil, nil, nil)
	if err != nil && !result.IsKind(err, result.KindNotFound) {
		return result.FromError[Unit]("delete agent", err)
	}
	return result.Ok(Unit{})
}

func (c *Client) ConversationToken(ctx context.Context, agentID, participant string) result.Result[string] {
	q := url.Values{}
	q.Set("agent_id", agentID)
	if participant != "" {
		q.Set("participant_name", participant)
	}

	var out tokenResponse
	if err := c.do(ctx, http.MethodGet, "/convai/conversation/token", q, nil, &out); err != nil {
		return result.FromError[string]("conversation token", err)
	}
	if out.Token == "" {
		return result.Err[string](result.KindDecode, "conversation token: response has no token", nil)
	}
	return result.Ok(out.Token)
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) result.Result[Conversation] {
	var out conversationResponse
	if err := c.do(ctx, http.MethodGet, "/convai/conversations/"+url.PathEscape(conversationID), nil, nil, &out); err != nil {
		return result.FromError[Conversation]("get conversation", err)
	}

	turns := make([]transcript.Turn, 0, len(out.Transcript))
	for _, t := range out.Transcript {
		turns = append(turns, transcript.Turn{Role: t.Role, Text: t.Message})
	}
	return result.Ok(Conversation{ID: out.ConversationID, Status: out.Status, Turns: turns})
}

// do performs one bounded request. Failures come back as *result.Error so
// callers can branch on Kind.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &result.Error{Kind: result.KindCaller, Reason: "marshal request", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &result.Error{Kind: result.KindCaller, Reason: "create request", Cause: err}
	}
	req.Header.Set("xi-api-key", c.ApiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return &result.Error{Kind: result.KindTimeout, Reason: method + " " + path, Cause: err}
		}
		return &result.Error{Kind: result.KindUpstream, Reason: method + " " + path, Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &result.Error{Kind: result.KindUpstream, Reason: "read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &result.Error{
			Kind:   kindForStatus(resp.StatusCode),
			Reason: fmt.Sprintf("%s %s: status %d", method, path, resp.StatusCode),
			Cause:  fmt.Errorf("body: %s", truncate(string(respBody), 512)),
		}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &result.Error{Kind: result.KindDecode, Reason: "unmarshal response", Cause: err}
	}
	return nil
}

func kindForStatus(code int) result.Kind {
	switch {
	case code == http.StatusNotFound:
		return result.KindNotFound
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return result.KindBadRequest
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return result.KindTimeout
	case code == http.StatusTooManyRequests || code >= 500:
		return result.KindUpstream
	default:
		return result.KindCaller
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
