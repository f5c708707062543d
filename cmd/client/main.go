package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aiacademy/tutor/pkg/client"
	"github.com/aiacademy/tutor/pkg/stream"
)

func main() {
	urlFlag := flag.String("url", "http://localhost:8080", "server url")
	tokenFlag := flag.String("token", "", "server token")
	lessonFlag := flag.String("lesson", "", "title of the current lesson")
	summarizeFlag := flag.String("summarize", "", "summarize the lesson with this id and exit")
	verboseFlag := flag.Bool("v", false, "show tool calls")

	flag.Parse()

	ctx := context.Background()

	options := []client.RequestOption{}

	if *tokenFlag != "" {
		options = append(options, client.WithToken(*tokenFlag))
	}

	c := client.New(*urlFlag, options...)

	if *summarizeFlag != "" {
		summarize(ctx, c, *summarizeFlag)
		return
	}

	chat(ctx, c, *lessonFlag, *verboseFlag)
}

func summarize(ctx context.Context, c *client.Client, lessonID string) {
	summary, err := c.Summaries.New(ctx, lessonID)

	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	fmt.Println(summary.Summary)
}

func chat(ctx context.Context, c *client.Client, lesson string, verbose bool) {
	reader := bufio.NewReader(os.Stdin)
	output := os.Stdout

	req := client.ChatRequest{
		Lesson: lesson,
	}

LOOP:
	for {
		output.WriteString(">>> ")
		input, err := reader.ReadString('\n')

		if err == io.EOF {
			return
		}

		if err != nil {
			panic(err)
		}

		input = strings.TrimSpace(input)

		if input == "" {
			continue LOOP
		}

		if strings.HasPrefix(input, "/") {
			switch strings.ToLower(input) {
			case "/reset":
				req.Messages = nil
				continue LOOP

			case "/exit", "/quit":
				return

			default:
				output.WriteString("Unknown command\n")
				continue LOOP
			}
		}

		req.Messages = append(req.Messages, client.UserMessage(input))

		var answer strings.Builder

		for e, err := range c.Chat.NewStream(ctx, req) {
			if err != nil {
				output.WriteString(err.Error() + "\n")
				req.Messages = req.Messages[:len(req.Messages)-1]
				continue LOOP
			}

			switch e.Type {
			case stream.EventTextDelta:
				answer.WriteString(e.Delta)
				output.WriteString(e.Delta)

			case stream.EventToolCall:
				if verbose {
					fmt.Fprintf(output, "[%s %s]\n", e.ToolName, string(e.Input))
				}

			case stream.EventError:
				output.WriteString("error: " + e.Message + "\n")
			}
		}

		if answer.Len() > 0 {
			req.Messages = append(req.Messages, client.AssistantMessage(answer.String()))
		}

		output.WriteString("\n")
		output.WriteString("\n")
	}
}
