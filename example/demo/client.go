package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MegaGrindStone/go-mcp-pool"
)

func runClient(endpoint string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool := mcppool.NewPool(mcppool.WithClientInfo(mcppool.Info{
		Name:    "demo-client",
		Version: "1.0",
	}))
	defer func() {
		if err := pool.CloseAll(); err != nil {
			fmt.Printf("Failed to close pool: %v\n", err)
		}
	}()

	if err := pool.AddServer(ctx, "demo", endpoint); err != nil {
		return fmt.Errorf("failed to add server: %w", err)
	}

	fmt.Println("Available tools:")
	for _, tool := range pool.Tools() {
		fmt.Printf("  %s: %s\n", tool.Name, tool.Description)
	}

	reply, err := pool.CallTool(ctx, "demo__add", map[string]any{"a": 17, "b": 25})
	if err != nil {
		return fmt.Errorf("failed to call add: %w", err)
	}
	result, err := toolResult(reply)
	if err != nil {
		return err
	}
	for _, content := range result.Content {
		fmt.Printf("17 + 25 = %s\n", content.Text)
	}

	// Without an API key the joke tool reports an error result; print it
	// either way.
	reply, err = pool.CallTool(ctx, "demo__tell_joke", map[string]any{"topic": "computers"})
	if err != nil {
		return fmt.Errorf("failed to call tell_joke: %w", err)
	}
	result, err = toolResult(reply)
	if err != nil {
		return err
	}
	for _, content := range result.Content {
		fmt.Println(content.Text)
	}

	return nil
}

func toolResult(reply mcppool.Reply) (mcppool.CallToolResult, error) {
	msg, err := mcppool.FirstMessage(reply)
	if err != nil {
		return mcppool.CallToolResult{}, err
	}
	if msg.Error != nil {
		return mcppool.CallToolResult{}, fmt.Errorf("tool call failed: %s", msg.Error.Message)
	}

	var result mcppool.CallToolResult
	if err := json.Unmarshal(msg.Result, &result); err != nil {
		return mcppool.CallToolResult{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return result, nil
}
