// Command rssdigest はRSSフィードの記事を収集し、Slackにダイジェストを投稿する。
package main

import (
	"fmt"
	"os"

	_ "time/tzdata"

	"github.com/hitoshi/rssdigest/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rssdigest: %v\n", err)
		os.Exit(1)
	}
}
