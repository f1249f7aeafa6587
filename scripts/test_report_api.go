package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

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
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
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

	client := &http.Client{} // Report generation can take a while, no timeout
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func decode(body []byte) map[string]interface{} {
	var out map[string]interface{}
	json.Unmarshal(body, &out)
	return out
}

func dataField(resp map[string]interface{}, key string) string {
	if data, ok := resp["data"].(map[string]interface{}); ok {
		if v, ok := data[key].(string); ok {
			return v
		}
	}
	return ""
}

func main() {
	userToken := os.Getenv("API_TEST_TOKEN")
	if userToken == "" {
		color.Red("API_TEST_TOKEN is not set. Login first and export the JWT.")
		os.Exit(1)
	}

	color.Cyan("Starting Report & Tutor API smoke test\n")

	// 1. Generate a report
	color.Yellow("\n1. Generate report")
	resp, body, err := sendRequest("POST", "/report/v1", userToken, map[string]interface{}{
		"subject": "Photosynthesis basics",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	genResp := decode(body)
	prettyPrint(genResp)

	reportID := dataField(genResp, "id")
	if reportID == "" {
		color.Red("No report id returned, aborting")
		os.Exit(1)
	}

	// 2. Show annotated report
	color.Yellow("\n2. Show report (annotated HTML)")
	resp, body, err = sendRequest("GET", "/report/v1/"+reportID, userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 3. Related reports
	color.Yellow("\n3. Related reports")
	resp, body, err = sendRequest("GET", "/report/v1/"+reportID+"/related", userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 4. Create tutor session
	color.Yellow("\n4. Create tutor session")
	resp, body, err = sendRequest("POST", "/tutor/v1/session", userToken, map[string]interface{}{
		"report_id": reportID,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	sessResp := decode(body)
	prettyPrint(sessResp)

	sessionID := dataField(sessResp, "id")
	if sessionID == "" {
		color.Red("No session id returned, aborting")
		os.Exit(1)
	}

	// 5. Chat with the tutor
	color.Yellow("\n5. Send chat")
	resp, body, err = sendRequest("POST", "/tutor/v1/chat", userToken, map[string]interface{}{
		"chat_session_id": sessionID,
		"chat":            "Can you explain the light-dependent reactions in one sentence?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 6. Regenerate the last reply
	color.Yellow("\n6. Regenerate last reply")
	resp, body, err = sendRequest("POST", "/tutor/v1/regenerate", userToken, map[string]interface{}{
		"chat_session_id": sessionID,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	// 7. History should show greeting + one user/model pair
	color.Yellow("\n7. Get chat history")
	resp, body, err = sendRequest("GET", "/tutor/v1/session/"+sessionID+"/history", userToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(decode(body))

	color.Cyan("\nSmoke test finished")
}
