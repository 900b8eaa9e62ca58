package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000"

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

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

// data unwraps the response envelope, returning nil when the shape is off.
func data(body []byte) map[string]interface{} {
	var envelope map[string]interface{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	d, _ := envelope["data"].(map[string]interface{})
	return d
}

func main() {
	color.Cyan("🚀 Front Desk Routing API Smoke Test\n")

	// 1. Health
	color.Yellow("\n[OPS] 1. Health Check")
	resp, body, err := sendRequest("GET", "/healthz", "", nil)
	if err != nil {
		color.Red("Failed: %v (is the server running on :3000?)", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var health map[string]interface{}
	json.Unmarshal(body, &health)
	prettyPrint(health)

	smokeId := fmt.Sprintf("smoke-%d", time.Now().Unix())

	// 2. A query the matcher should route directly
	color.Yellow("\n[ASSISTANT] 2. Route a Clear Query")
	resp, body, err = sendRequest("POST", "/api/assistant/v1/route", "", map[string]interface{}{
		"conversation_id": smokeId,
		"query":           "can i borrow a laptop charger",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	if d := data(body); d != nil {
		fmt.Printf("Mode: %v | Category: %v | Tier: %v | Reason: %v\n", d["mode"], d["category"], d["confidence_tier"], d["reason"])
	}

	// 3. An ambiguous query that should come back as a question
	color.Yellow("\n[ASSISTANT] 3. Route an Ambiguous Query")
	ambigId := smokeId + "-ambig"
	resp, body, err = sendRequest("POST", "/api/assistant/v1/route", "", map[string]interface{}{
		"conversation_id": ambigId,
		"query":           "my laptop",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	var choiceId string
	if d := data(body); d != nil {
		fmt.Printf("Mode: %v | Reason: %v\n", d["mode"], d["reason"])
		if clar, ok := d["clarification"].(map[string]interface{}); ok {
			fmt.Printf("Question: %v\n", clar["question"])
			if choices, ok := clar["choices"].([]interface{}); ok {
				for _, c := range choices {
					if choice, ok := c.(map[string]interface{}); ok {
						fmt.Printf("  - [%v] %v\n", choice["id"], choice["label"])
						if choiceId == "" {
							choiceId, _ = choice["id"].(string)
						}
					}
				}
			}
		}
	}

	// 4. Check the pending question is queryable, then answer it
	if choiceId == "" {
		color.Red("[SKIP] No clarification came back; steps 4-6 need one")
	} else {
		color.Yellow("\n[ASSISTANT] 4. Fetch Pending Clarification")
		resp, body, err = sendRequest("GET", "/api/assistant/v1/conversations/"+ambigId+"/pending", "", nil)
		if err != nil {
			color.Red("Failed: %v", err)
		} else {
			color.Green("Status: %s", resp.Status)
			if d := data(body); d != nil {
				fmt.Printf("Phase: %v | Expires in: %vs\n", d["phase"], d["expires_in_seconds"])
			}
		}

		color.Yellow("\n[ASSISTANT] 5. Answer With a Choice")
		resp, body, err = sendRequest("POST", "/api/assistant/v1/route", "", map[string]interface{}{
			"conversation_id": ambigId,
			"query":           "that one",
			"choice_id":       choiceId,
		})
		if err != nil {
			color.Red("Failed: %v", err)
		} else {
			color.Green("Status: %s", resp.Status)
			if d := data(body); d != nil {
				fmt.Printf("Mode: %v | Category: %v | Reason: %v\n", d["mode"], d["category"], d["reason"])
			}
		}

		color.Yellow("\n[ASSISTANT] 6. Escape Hatch Then Elaboration")
		sentId := smokeId + "-sentinel"
		sendRequest("POST", "/api/assistant/v1/route", "", map[string]interface{}{
			"conversation_id": sentId,
			"query":           "my laptop",
		})
		resp, body, err = sendRequest("POST", "/api/assistant/v1/route", "", map[string]interface{}{
			"conversation_id": sentId,
			"query":           "",
			"choice_id":       "none-of-the-above",
		})
		if err != nil {
			color.Red("Failed: %v", err)
		} else {
			if d := data(body); d != nil {
				if clar, ok := d["clarification"].(map[string]interface{}); ok {
					fmt.Printf("Prompt: %v\n", clar["question"])
				}
			}
			resp, body, _ = sendRequest("POST", "/api/assistant/v1/route", "", map[string]interface{}{
				"conversation_id": sentId,
				"query":           "i spilled coffee on it and now the keyboard will not type",
			})
			color.Green("Status: %s", resp.Status)
			if d := data(body); d != nil {
				fmt.Printf("Mode: %v | Category: %v | Reason: %v\n", d["mode"], d["category"], d["reason"])
			}
		}
	}

	// 7. Admin surface, behind a real login
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@deskmate.local"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		color.Red("\n[SKIP] ADMIN_PASSWORD not set; skipping admin endpoints")
	} else {
		color.Yellow("\n[ADMIN] 7. Login")
		resp, body, err = sendRequest("POST", "/api/admin/v1/login", "", map[string]interface{}{
			"email":    adminEmail,
			"password": adminPassword,
		})
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		color.Green("Status: %s", resp.Status)

		var token string
		if d := data(body); d != nil {
			token, _ = d["token"].(string)
		}
		if token == "" {
			color.Red("No token returned; check ADMIN_EMAIL / ADMIN_PASSWORD")
		} else {
			color.Yellow("\n[ADMIN] 8. Current Thresholds")
			resp, body, err = sendRequest("GET", "/api/admin/v1/thresholds", token, nil)
			if err != nil {
				color.Red("Failed: %v", err)
			} else {
				color.Green("Status: %s", resp.Status)
				var thresholds map[string]interface{}
				json.Unmarshal(body, &thresholds)
				prettyPrint(thresholds)
			}

			color.Yellow("\n[ADMIN] 9. Catalog Test Probe")
			resp, body, err = sendRequest("POST", "/api/admin/v1/prototypes/test", token, map[string]interface{}{
				"query": "where do i return my books",
			})
			if err != nil {
				color.Red("Failed: %v", err)
			} else {
				color.Green("Status: %s", resp.Status)
				if d := data(body); d != nil {
					fmt.Printf("Snapshot: %v\n", d["snapshot_version"])
					if cands, ok := d["snapshot_candidates"].([]interface{}); ok && len(cands) > 0 {
						if top, ok := cands[0].(map[string]interface{}); ok {
							fmt.Printf("Top: %v (%.3v)\n", top["category"], top["score"])
						}
					}
				}
			}

			color.Yellow("\n[ADMIN] 10. Recent Decisions")
			resp, body, err = sendRequest("GET", "/api/admin/v1/decisions?limit=5", token, nil)
			if err != nil {
				color.Red("Failed: %v", err)
			} else {
				color.Green("Status: %s", resp.Status)
				if d := data(body); d != nil {
					fmt.Printf("Total decisions recorded: %v\n", d["total"])
				}
			}
		}
	}

	color.Cyan("\n✅ Smoke Sequence Complete")
}
