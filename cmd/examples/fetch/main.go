// Command fetch demonstrates the hybrid engine against a single URL,
// printing the resulting title and content length. It is not part of the
// library's public contract — just a runnable example.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"fetchkit"
)

func main() {
	url := flag.String("url", "https://example.com", "URL to fetch")
	markdown := flag.Bool("markdown", false, "convert the result to Markdown")
	spa := flag.Bool("spa", false, "enable SPA-shell detection")
	flag.Parse()

	opts := fetchkit.DefaultOptions()
	router := fetchkit.NewHybridRouter(opts)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := router.Cleanup(ctx); err != nil {
			log.Printf("cleanup error: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := router.FetchContent(ctx, fetchkit.FetchRequest{
		URL:      *url,
		Markdown: markdown,
		SPAMode:  spa,
	})
	if err != nil {
		if fe, ok := fetchkit.AsFetchError(err); ok {
			log.Fatalf("fetch failed: %s (%s)", fe.Message, fe.Code)
		}
		log.Fatalf("fetch failed: %v", err)
	}

	fmt.Printf("title: %s\n", result.Title)
	fmt.Printf("finalURL: %s\n", result.FinalURL)
	fmt.Printf("status: %d\n", result.StatusCode)
	fmt.Printf("contentType: %s\n", result.ContentType)
	fmt.Printf("contentLength: %d\n", len(result.Content))
}
