package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ai-thumbnail-be/internal/pkg/serverutils"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return resp, nil, err
	}
	return resp, out, nil
}

func step(title, method, url, token string, body interface{}) map[string]interface{} {
	color.Yellow("\n%s", title)
	resp, out, err := sendRequest(method, url, token, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 400 {
		color.Red("Status: %s", resp.Status)
	} else {
		color.Green("Status: %s", resp.Status)
	}
	prettyPrint(out)
	data, _ := out["data"].(map[string]interface{})
	return data
}

func main() {
	_ = godotenv.Load()
	if url := os.Getenv("SMOKE_BASE_URL"); url != "" {
		baseURL = url
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		color.Red("JWT_SECRET is not set")
		os.Exit(1)
	}

	userId := uuid.New()
	token, err := serverutils.IssueToken(secret, userId, time.Hour)
	if err != nil {
		color.Red("Failed to sign token: %v", err)
		os.Exit(1)
	}
	color.Cyan("🚀 Starting thumbnail pipeline smoke test as %s\n", userId)

	step("1. List algorithms", http.MethodGet, "/algorithms", "", nil)
	step("2. Open wallet", http.MethodGet, "/credits/balance", token, nil)

	created := step("3. Create generation", http.MethodPost, "/generations", token, map[string]interface{}{
		"algorithm_id": "basic",
		"prompt":       "Epic gaming highlights with neon explosions",
	})
	id, _ := created["id"].(string)
	if id == "" {
		color.Red("No generation id returned")
		os.Exit(1)
	}

	// Poll until the pipeline reaches a terminal state.
	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		_, out, err := sendRequest(http.MethodGet, "/generations/"+id+"/status", token, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		data, _ := out["data"].(map[string]interface{})
		status, _ := data["status"].(string)
		color.White("  status=%s progress=%v", status, data["progress"])
		if status == "completed" || status == "failed" || status == "cancelled" {
			break
		}
		time.Sleep(time.Second)
	}

	step("4. Show generation", http.MethodGet, "/generations/"+id, token, nil)
	step("5. Transactions", http.MethodGet, "/credits/transactions", token, nil)
	step("6. Stats", http.MethodGet, "/generations/stats", token, nil)

	color.Cyan("\n✅ Smoke test finished")
}
