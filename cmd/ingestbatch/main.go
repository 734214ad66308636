/**
 * Batch ingestion CLI
 *
 * Posts a set of image URLs to a running service's /ingest endpoint, with a
 * delay between requests. Useful for smoke-testing the full pipeline.
 */

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type ingestRequest struct {
	ImageURL   string  `json:"image_url"`
	Annotation *string `json:"annotation,omitempty"`
}

type ingestResponse struct {
	Status        string  `json:"status"`
	ImageID       string  `json:"image_id"`
	PredictedText string  `json:"predicted_text"`
	Score         float64 `json:"score"`
}

type exampleImage struct {
	url        string
	annotation string
}

// exampleImages are ingested when no URLs are given on the command line.
var exampleImages = []exampleImage{
	{
		url:        "https://fki.tic.heia-fr.ch/static/img/a01-122-02-00.jpg",
		annotation: "industrie",
	},
	{
		url:        "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcQvc9YzVQCGKRAu7LMZObym4YElk59PqVWlHg&s",
		annotation: "Wikipedia",
	},
}

func main() {
	apiURL := flag.String("api-url", "http://localhost:8080", "base URL of the OCR service")
	delay := flag.Duration("delay", time.Second, "delay between requests")
	flag.Parse()

	images := exampleImages
	if args := flag.Args(); len(args) > 0 {
		images = make([]exampleImage, len(args))
		for i, u := range args {
			images[i] = exampleImage{url: u}
		}
	}

	endpoint := *apiURL + "/ingest"
	client := &http.Client{Timeout: 60 * time.Second}

	fmt.Printf("ingesting %d images via %s\n", len(images), endpoint)

	successful, failed := 0, 0
	for i, img := range images {
		fmt.Printf("[%d/%d] %s\n", i+1, len(images), img.url)

		result, err := ingestOne(client, endpoint, img)
		if err != nil {
			fmt.Printf("  failed: %v\n", err)
			failed++
		} else {
			fmt.Printf("  image_id=%s predicted=%q score=%.4f\n",
				result.ImageID, result.PredictedText, result.Score)
			successful++
		}

		if i < len(images)-1 {
			time.Sleep(*delay)
		}
	}

	fmt.Printf("done: %d successful, %d failed\n", successful, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func ingestOne(client *http.Client, endpoint string, img exampleImage) (*ingestResponse, error) {
	req := ingestRequest{ImageURL: img.url}
	if img.annotation != "" {
		req.Annotation = &img.annotation
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, respBody)
	}

	var result ingestResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}

	return &result, nil
}
