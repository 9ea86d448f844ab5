package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type providerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Model string `json:"model"`
}

type translateRequest struct {
	FileContent string `json:"fileContent"`
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	Language    string `json:"language"`
	Provider    string `json:"provider"`
}

type translateResponse struct {
	Translation string `json:"translation"`
	Provider    string `json:"provider"`
	Fallback    bool   `json:"fallback"`
}

type result struct {
	Sample   string
	Chars    int
	Provider string
	Run      int
	WallMs   int64
	OutChars int
	Fallback bool
	Error    string
}

type target struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	provider string
	language string
}

func main() {
	url := flag.String("url", "http://localhost:8090", "API base URL")
	apiKey := flag.String("api-key", "", "API key (optional)")
	runs := flag.Int("runs", 3, "Number of runs per sample")
	provider := flag.String("provider", "", "Provider ID to use (default: first listed)")
	language := flag.String("lang", "es", "Target language code")
	quality := flag.Bool("quality", false, "Quality mode: show input/output for each sample (1 run, no timing table)")
	jsonOut := flag.String("json", "", "Write results to JSON file (e.g. results.json)")
	warmup := flag.Bool("warmup", false, "Run one warmup request per sample before measuring")
	flag.Parse()

	tg := target{
		client:   &http.Client{Timeout: 180 * time.Second},
		baseURL:  strings.TrimRight(*url, "/"),
		apiKey:   *apiKey,
		provider: *provider,
		language: *language,
	}
	if tg.provider == "" {
		tg.provider = discoverProvider(tg)
	}

	if *quality {
		runQualityMode(tg)
		return
	}

	fmt.Printf("Benchmarking against %s using provider: %s, language: %s (%d runs per sample", tg.baseURL, tg.provider, tg.language, *runs)
	if *warmup {
		fmt.Print(", warmup enabled")
	}
	fmt.Println(")")

	var results []result
	var failures int
	for _, sample := range Samples {
		if *warmup {
			fmt.Printf("  Warming up %s...", sample.Name)
			w := benchmark(tg, sample, 0)
			if w.Error != "" {
				fmt.Printf(" FAILED (%s)\n", w.Error)
			} else {
				fmt.Printf(" %dms (discarded)\n", w.WallMs)
			}
		}
		for run := 1; run <= *runs; run++ {
			fmt.Printf("  Running %s (run %d/%d)...", sample.Name, run, *runs)
			r := benchmark(tg, sample, run)
			results = append(results, r)
			if r.Error != "" {
				fmt.Printf(" FAILED (%s)\n", r.Error)
				failures++
			} else {
				fmt.Printf(" %dms\n", r.WallMs)
			}
		}
	}

	fmt.Println()
	printTable(results)
	printSummary(results)

	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, results, tg); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
		} else {
			fmt.Printf("\nResults written to %s\n", *jsonOut)
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func discoverProvider(tg target) string {
	req, err := http.NewRequest(http.MethodGet, tg.baseURL+"/api/providers", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	if tg.apiKey != "" {
		req.Header.Set("X-API-Key", tg.apiKey)
	}

	resp, err := tg.client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching providers: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Providers endpoint returned %d: %s\n", resp.StatusCode, body)
		os.Exit(1)
	}

	var providers []providerInfo
	if err := json.NewDecoder(resp.Body).Decode(&providers); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding providers: %v\n", err)
		os.Exit(1)
	}
	if len(providers) == 0 {
		fmt.Fprintln(os.Stderr, "No providers available")
		os.Exit(1)
	}
	return providers[0].ID
}

// translate posts one sample and returns the decoded response and the wall
// time of the request.
func translate(tg target, sample Sample) (translateResponse, int64, error) {
	payload, _ := json.Marshal(translateRequest{
		FileContent: sample.Text,
		FileName:    sample.FileName,
		FileType:    "text/plain",
		Language:    tg.language,
		Provider:    tg.provider,
	})

	req, err := http.NewRequest(http.MethodPost, tg.baseURL+"/api/translate", strings.NewReader(string(payload)))
	if err != nil {
		return translateResponse{}, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tg.apiKey != "" {
		req.Header.Set("X-API-Key", tg.apiKey)
	}

	start := time.Now()
	resp, err := tg.client.Do(req)
	wallMs := time.Since(start).Milliseconds()
	if err != nil {
		return translateResponse{}, wallMs, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return translateResponse{}, wallMs, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return translateResponse{}, wallMs, err
	}
	return tr, wallMs, nil
}

func benchmark(tg target, sample Sample, run int) result {
	r := result{Sample: sample.Name, Chars: len([]rune(sample.Text)), Run: run}
	tr, wallMs, err := translate(tg, sample)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Provider = tr.Provider
	r.WallMs = wallMs
	r.OutChars = len([]rune(tr.Translation))
	r.Fallback = tr.Fallback
	return r
}

func printTable(results []result) {
	fmt.Println("| Sample | Chars | Provider | Run | Wall (ms) | Out Chars | Ratio | Fallback |")
	fmt.Println("|--------|-------|----------|-----|-----------|-----------|-------|----------|")
	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("| %-6s | %5d | %-24s | %d | %9s | %9s | %5s | %8s |\n",
				r.Sample, r.Chars, "-", r.Run, "FAIL", "-", "-", "-")
			continue
		}
		ratio := float64(r.OutChars) / float64(r.Chars)
		fmt.Printf("| %-6s | %5d | %-24s | %d | %9d | %9d | %5.2f | %8t |\n",
			r.Sample, r.Chars, r.Provider, r.Run, r.WallMs, r.OutChars, ratio, r.Fallback)
	}
}

func runQualityMode(tg target) {
	fmt.Printf("Quality test against %s using provider: %s, language: %s\n", tg.baseURL, tg.provider, tg.language)
	fmt.Println(strings.Repeat("=", 72))

	var failures int
	for i, sample := range QualitySamples {
		fmt.Printf("\n--- %d/%d: %s (%d chars) ---\n", i+1, len(QualitySamples), sample.Name, len(sample.Text))
		fmt.Printf("IN:  %s\n", sample.Text)

		tr, wallMs, err := translate(tg, sample)
		if err != nil {
			fmt.Printf("ERR: %s\n", err)
			failures++
			continue
		}

		fmt.Printf("OUT: %s\n", tr.Translation)
		note := ""
		if tr.Fallback {
			note = ", offline fallback"
		}
		fmt.Printf("     [%dms, %d->%d chars%s]\n", wallMs, len(sample.Text), len(tr.Translation), note)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 72))
	fmt.Printf("Done: %d/%d passed\n", len(QualitySamples)-failures, len(QualitySamples))
	if failures > 0 {
		os.Exit(1)
	}
}

func printSummary(results []result) {
	var ok []result
	for _, r := range results {
		if r.Error == "" {
			ok = append(ok, r)
		}
	}

	failed := len(results) - len(ok)

	if len(ok) == 0 {
		fmt.Printf("\nSummary: all %d runs failed\n", len(results))
		return
	}

	var totalWall int64
	var totalChars, fallbacks int
	minWall, maxWall := ok[0].WallMs, ok[0].WallMs
	minSample, maxSample := ok[0].Sample, ok[0].Sample

	for _, r := range ok {
		totalWall += r.WallMs
		totalChars += r.Chars
		if r.Fallback {
			fallbacks++
		}
		if r.WallMs < minWall {
			minWall, minSample = r.WallMs, r.Sample
		}
		if r.WallMs > maxWall {
			maxWall, maxSample = r.WallMs, r.Sample
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("- Avg ms/char: %.2f\n", float64(totalWall)/float64(totalChars))
	fmt.Printf("- Min wall: %dms (%s)\n", minWall, minSample)
	fmt.Printf("- Max wall: %dms (%s)\n", maxWall, maxSample)
	fmt.Printf("- Total runs: %d (%d ok, %d failed, %d fallback)\n", len(results), len(ok), failed, fallbacks)
}

type jsonReport struct {
	Timestamp string   `json:"timestamp"`
	URL       string   `json:"url"`
	Provider  string   `json:"provider"`
	Language  string   `json:"language"`
	Results   []result `json:"results"`
}

func writeJSON(path string, results []result, tg target) error {
	report := jsonReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       tg.baseURL,
		Provider:  tg.provider,
		Language:  tg.language,
		Results:   results,
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
