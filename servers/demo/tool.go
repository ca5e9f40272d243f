package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/MegaGrindStone/go-mcp-pool"
	"github.com/qri-io/jsonschema"
)

var addSchema = jsonschema.Must(string(addSchemaJSON))

var tellJokeSchema = jsonschema.Must(string(tellJokeSchemaJSON))

var searchSchema = jsonschema.Must(string(searchSchemaJSON))

var toolList = []mcppool.Tool{
	{
		Name:        "add",
		Description: "Adds two numbers",
		InputSchema: addSchemaJSON,
	},
	{
		Name:        "tell_joke",
		Description: "Tells a family-friendly joke about the desired topic",
		InputSchema: tellJokeSchemaJSON,
	},
	{
		Name: "search_internet_and_answer",
		Description: "Searches the internet and answers the user's question with the " +
			"retrieved context. This tool handles most queries that need additional context.",
		InputSchema: searchSchemaJSON,
	},
}

const searchSystemPrompt = `You are a helpful assistant designed to answer users' questions using the context provided.
Your main audience is college students, so keep your answers full, clear, and casual.
Always answer fully, give examples if needed, and format your responses in Markdown for easy reading.`

func (s *Server) callTool(ctx context.Context, params mcppool.CallToolParams) (mcppool.CallToolResult, error) {
	switch params.Name {
	case "add":
		return s.callAdd(ctx, params)
	case "tell_joke":
		return s.callTellJoke(ctx, params)
	case "search_internet_and_answer":
		return s.callSearch(ctx, params)
	default:
		return mcppool.CallToolResult{}, fmt.Errorf("tool not found: %s", params.Name)
	}
}

func (s *Server) callAdd(ctx context.Context, params mcppool.CallToolParams) (mcppool.CallToolResult, error) {
	vs := addSchema.Validate(ctx, params.Arguments)
	errs := *vs.Errs
	if len(errs) > 0 {
		var errStr []string
		for _, err := range errs {
			errStr = append(errStr, err.Message)
		}
		return mcppool.CallToolResult{}, fmt.Errorf("params validation failed: %s", strings.Join(errStr, ", "))
	}

	a, _ := params.Arguments["a"].(float64)
	b, _ := params.Arguments["b"].(float64)

	return textResult(strconv.FormatFloat(a+b, 'f', -1, 64)), nil
}

func (s *Server) callTellJoke(ctx context.Context, params mcppool.CallToolParams) (mcppool.CallToolResult, error) {
	vs := tellJokeSchema.Validate(ctx, params.Arguments)
	errs := *vs.Errs
	if len(errs) > 0 {
		var errStr []string
		for _, err := range errs {
			errStr = append(errStr, err.Message)
		}
		return mcppool.CallToolResult{}, fmt.Errorf("params validation failed: %s", strings.Join(errStr, ", "))
	}

	if s.completer == nil {
		return errorResult("no chat completer is configured"), nil
	}

	topic, _ := params.Arguments["topic"].(string)
	if topic == "" {
		topic = "anything"
	}

	joke, err := s.completer.Complete(ctx, ChatRequest{
		Messages: []ChatMessage{
			{Role: RoleUser, Content: fmt.Sprintf("Tell me a short, family-friendly joke about %s.", topic)},
		},
		Temperature: 0.8,
		MaxTokens:   50,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("failed to tell joke: %v", err)), nil
	}

	return textResult(joke), nil
}

func (s *Server) callSearch(ctx context.Context, params mcppool.CallToolParams) (mcppool.CallToolResult, error) {
	vs := searchSchema.Validate(ctx, params.Arguments)
	errs := *vs.Errs
	if len(errs) > 0 {
		var errStr []string
		for _, err := range errs {
			errStr = append(errStr, err.Message)
		}
		return mcppool.CallToolResult{}, fmt.Errorf("params validation failed: %s", strings.Join(errStr, ", "))
	}

	if s.completer == nil {
		return errorResult("no chat completer is configured"), nil
	}

	query, _ := params.Arguments["query"].(string)

	s.logger.Info("searching the internet", slog.String("query", query))

	page, err := s.searcher.Search(ctx, query)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to search: %v", err)), nil
	}

	pageBs, err := json.Marshal(page)
	if err != nil {
		return mcppool.CallToolResult{}, fmt.Errorf("failed to marshal page: %w", err)
	}

	s.logger.Info("answering with page context", slog.String("url", page.URL))

	answer, err := s.completer.Complete(ctx, ChatRequest{
		Messages: []ChatMessage{
			{Role: RoleSystem, Content: searchSystemPrompt},
			{Role: RoleSystem, Content: fmt.Sprintf("CONTEXT: %s", pageBs)},
			{Role: RoleUser, Content: query},
		},
	})
	if err != nil {
		return errorResult(fmt.Sprintf("failed to answer: %v", err)), nil
	}

	return textResult(answer), nil
}

func textResult(text string) mcppool.CallToolResult {
	return mcppool.CallToolResult{
		Content: []mcppool.Content{
			{
				Type: mcppool.ContentTypeText,
				Text: text,
			},
		},
		IsError: false,
	}
}

func errorResult(text string) mcppool.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}
