package genproxy

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/liuzl/genproxy/gemini"
)

const warningPreviewRunes = 200

// partScan is the result of one ordered pass over the reply parts.
type partScan struct {
	text   string
	image  string
	reason string // block or finish reason, if the upstream gave one
}

// scanResponse concatenates every text part and keeps the first part with a
// non-empty binary payload as the image, if keepImage allows it.
func scanResponse(resp *gemini.GenerateContentResponse, keepImage bool) partScan {
	var (
		scan partScan
		text strings.Builder
	)
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != nil {
		scan.reason = *resp.PromptFeedback.BlockReason
	}
	if len(resp.Candidates) == 0 {
		return scan
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason != nil && scan.reason == "" {
		scan.reason = string(*candidate.FinishReason)
	}
	for _, part := range candidate.Content.Parts {
		if part.Text != nil {
			text.WriteString(*part.Text)
		}
		if scan.image != "" || !keepImage {
			continue
		}
		if blob := part.Blob(); blob != nil && blob.Data != "" {
			scan.image = FormatDataURI(blob.MimeType, blob.Data)
		} else if part.FileData != nil && part.FileData.FileURI != "" {
			scan.image = part.FileData.FileURI
		}
	}
	scan.text = text.String()
	return scan
}

// resolve applies the output priority: preferText always yields text, then
// text when no image came back, then the image.
func resolve(g *generation, scan partScan) (*Result, error) {
	switch {
	case g.preferText:
		return &Result{Type: ResultText, Text: scan.text}, nil
	case scan.image == "" && scan.text != "":
		res := &Result{Type: ResultText, Text: scan.text}
		if g.profile == ProfileImage {
			res.Warning = fmt.Sprintf("Model returned text instead of an image: %q", preview(scan.text))
		}
		return res, nil
	case scan.image != "":
		return &Result{Type: ResultImage, DataURI: scan.image}, nil
	default:
		msg := "empty response from model"
		if scan.reason != "" {
			msg = fmt.Sprintf("%s (reason: %s)", msg, scan.reason)
		}
		return nil, NewUpstreamProtocolError(http.StatusOK, msg, "", nil)
	}
}

func preview(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= warningPreviewRunes {
		return string(r)
	}
	return string(r[:warningPreviewRunes]) + "..."
}
