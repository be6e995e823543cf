package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "version", "--version", "-v":
		fmt.Printf("llmrouterctl %s\n", version)
	case "complete":
		doComplete(args)
	case "feedback":
		doFeedback(args)
	case "health":
		doHealth()
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	usageTo(os.Stderr)
}

func usageTo(w io.Writer) {
	fmt.Fprint(w, `Usage: llmrouterctl <command> [arguments]

Commands:
  complete <prompt> [--strategy=NAME] [--sensitivity=NAME] [--force-model=ID]
      Submit a prompt to POST /complete and print the response.
  feedback <prompt> <correctCategory>
      Submit a category correction to POST /feedback.
  health
      Print the result of GET /health.

Environment:
  LLMROUTER_ADDR   base URL of the running server (default http://localhost:3000)
`)
}

func baseURL() string {
	if v := os.Getenv("LLMROUTER_ADDR"); v != "" {
		return v
	}
	return "http://localhost:3000"
}

func doComplete(args []string) {
	if len(args) < 1 {
		fatal(fmt.Errorf("complete requires a prompt argument"))
	}
	prompt := args[0]

	options := map[string]any{}
	for _, a := range args[1:] {
		switch {
		case strings.HasPrefix(a, "--strategy="):
			options["strategy"] = strings.TrimPrefix(a, "--strategy=")
		case strings.HasPrefix(a, "--sensitivity="):
			options["sensitivity"] = strings.TrimPrefix(a, "--sensitivity=")
		case strings.HasPrefix(a, "--force-model="):
			options["forceModel"] = strings.TrimPrefix(a, "--force-model=")
		}
	}

	body := map[string]any{"prompt": prompt}
	if len(options) > 0 {
		body["options"] = options
	}
	resp := doPost("/complete", body)
	fmt.Println(prettyJSON(resp))
}

func doFeedback(args []string) {
	if len(args) < 2 {
		fatal(fmt.Errorf("feedback requires <prompt> <correctCategory>"))
	}
	resp := doPost("/feedback", map[string]any{
		"prompt":          args[0],
		"correctCategory": args[1],
	})
	fmt.Println(prettyJSON(resp))
}

func doHealth() {
	resp := doGet("/health")
	fmt.Println(prettyJSON(resp))
}

func doGet(path string) map[string]any {
	resp, err := http.Get(baseURL() + path)
	if err != nil {
		fatal(err)
	}
	return readJSON(resp)
}

func doPost(path string, body map[string]any) map[string]any {
	payload, err := json.Marshal(body)
	if err != nil {
		fatal(err)
	}
	resp, err := http.Post(baseURL()+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		fatal(err)
	}
	return readJSON(resp)
}

func readJSON(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var v map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		fatal(fmt.Errorf("decode response: %w", err))
	}
	return v
}

func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	return string(b)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
