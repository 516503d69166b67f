package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/satriahrh/dsa-assistant/domain"
)

func main() {
	base := flag.String("base", "http://localhost:5000", "relay base URL")
	problem := flag.String("url", "https://leetcode.com/problems/two-sum/", "LeetCode problem URL")
	flag.Parse()
	*base = strings.TrimRight(*base, "/")

	fmt.Println("🚀 Starting relay smoke test...")
	client := &http.Client{Timeout: 90 * time.Second}

	if _, err := call(client, http.MethodGet, *base+"/api/health", nil); err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	fmt.Println("✅ Health check passed")

	var analysis domain.Analysis
	if err := callJSON(client, *base+"/api/analyze-problem", domain.AnalysisRequest{ProblemURL: *problem}, &analysis); err != nil {
		log.Fatalf("Analyze failed: %v", err)
	}
	fmt.Printf("📋 Analysis:\n%s\n", analysis.Analysis)

	var hint domain.HintResponse
	req := domain.HintRequest{ProblemURL: *problem, Question: "What data structure should I consider?"}
	if err := callJSON(client, *base+"/api/generate-hint", req, &hint); err != nil {
		log.Fatalf("Hint failed: %v", err)
	}
	if hint.ProblemURL != *problem {
		log.Fatalf("Hint echoed %q, want %q", hint.ProblemURL, *problem)
	}
	fmt.Printf("💡 Hint:\n%s\n", hint.Hint)

	var reset domain.ResetResult
	if err := callJSON(client, *base+"/api/reset-conversation", struct{}{}, &reset); err != nil || !reset.Success {
		log.Fatalf("Reset failed: %v (%+v)", err, reset)
	}
	fmt.Println("✅ Smoke test completed successfully!")
}

func callJSON(client *http.Client, url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	raw, err := call(client, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func call(client *http.Client, method, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	fmt.Printf("⏱️  %s %s -> %d in %v\n", method, url, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
	return raw, nil
}
