package segment

import (
	"fmt"
	"strings"
	"time"

	"github.com/snarg/chaptr/internal/chapters"
	"github.com/snarg/chaptr/internal/transcript"
)

const systemPrompt = "You are an expert video editor who divides long transcripts into clear, well-titled chapters. " +
	"You answer with a single JSON object and nothing else."

func buildPrompt(text string, k int, mode chapters.Mode, maxWords int, duration time.Duration) string {
	var b strings.Builder
	if mode == chapters.ModeQA {
		writeQAPrompt(&b, k, maxWords)
	} else {
		writeGeneralPrompt(&b, k, maxWords)
	}

	fmt.Fprintf(&b, "\nThe video is %s long. Timestamps must come from the transcript below.\n\n", transcript.Clock(duration))
	b.WriteString("Respond with JSON only, in exactly this shape:\n")
	b.WriteString(`{"chapters": [{"timestamp": "00:00:00", "title": "Introduction"}, {"timestamp": "HH:MM:SS", "title": "Short Topic Title"}]}`)
	b.WriteString("\n\nTranscript:\n")
	b.WriteString(text)
	return b.String()
}

func writeGeneralPrompt(b *strings.Builder, k, maxWords int) {
	fmt.Fprintf(b, "Divide this video transcript into exactly %d chapters.\n\n", k)
	b.WriteString("Rules:\n")
	b.WriteString("1. Each chapter marks the moment a NEW topic is first introduced, not an even slice of time.\n")
	b.WriteString("2. Use the timestamp of the transcript line where the topic begins.\n")
	b.WriteString("3. The first chapter is 00:00:00 Introduction.\n")
	fmt.Fprintf(b, "4. Titles are at most %d words and name the specific topic.\n", maxWords)
	b.WriteString("5. Timestamps are in ascending order and cover the whole video.\n")
}

func writeQAPrompt(b *strings.Builder, k, maxWords int) {
	questions := max(k-2, 0)
	fmt.Fprintf(b, "This transcript is a question and answer session. Divide it into exactly %d chapters:\n", k)
	b.WriteString("one Introduction chapter at 00:00:00, ")
	fmt.Fprintf(b, "%d chapters for the questions in the order they are asked, ", questions)
	b.WriteString("and one closing chapter.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Each question chapter starts where the question is asked.\n")
	b.WriteString("2. Title question chapters with the topic of the question, not \"Question N\".\n")
	fmt.Fprintf(b, "3. Titles are at most %d words.\n", maxWords)
	b.WriteString("4. Timestamps are in ascending order.\n")
}
