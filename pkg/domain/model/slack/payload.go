package slack

import (
	"github.com/m-mizutani/goerr/v2"
	libslack "github.com/slack-go/slack"
)

// ErrInvalidPayload is returned by Payload.Validate.
var ErrInvalidPayload = goerr.New("invalid send payload")

// PayloadKind tags the variant held by a Payload.
type PayloadKind string

const (
	PayloadText        PayloadKind = "text"
	PayloadFile        PayloadKind = "file"
	PayloadAttachments PayloadKind = "attachments"
	PayloadBlocks      PayloadKind = "blocks"
)

// File is an upload built from in-memory content.
type File struct {
	Filename string
	Title    string
	Content  []byte
	// Comment is posted together with the file.
	Comment string
}

// Payload is the content of one outbound send. Build it with one of the
// constructors; the zero value is invalid.
type Payload struct {
	kind        PayloadKind
	text        string
	file        *File
	attachments []libslack.Attachment
	blocks      []libslack.Block
	threadTS    string
	unfurl      bool
}

func TextPayload(text string) Payload {
	return Payload{kind: PayloadText, text: text}
}

func FilePayload(file File) Payload {
	return Payload{kind: PayloadFile, file: &file}
}

// AttachmentsPayload posts attachments with an optional plain text body.
func AttachmentsPayload(text string, attachments ...libslack.Attachment) Payload {
	return Payload{kind: PayloadAttachments, text: text, attachments: attachments}
}

// BlocksPayload posts Block Kit blocks. fallbackText is shown in notifications.
func BlocksPayload(fallbackText string, blocks ...libslack.Block) Payload {
	return Payload{kind: PayloadBlocks, text: fallbackText, blocks: blocks}
}

// InThread returns a copy posted as a reply to threadTS. An empty ts posts to the channel.
func (p Payload) InThread(threadTS string) Payload {
	p.threadTS = threadTS
	return p
}

// WithLinkUnfurl returns a copy that asks Slack to unfurl links.
func (p Payload) WithLinkUnfurl() Payload {
	p.unfurl = true
	return p
}

// Getters
func (p Payload) Kind() PayloadKind                  { return p.kind }
func (p Payload) Text() string                       { return p.text }
func (p Payload) File() *File                        { return p.file }
func (p Payload) Attachments() []libslack.Attachment { return p.attachments }
func (p Payload) Blocks() []libslack.Block           { return p.blocks }
func (p Payload) ThreadTS() string                   { return p.threadTS }
func (p Payload) Unfurl() bool                       { return p.unfurl }

// Validate checks the variant specific requirements.
func (p Payload) Validate() error {
	switch p.kind {
	case PayloadText:
		if p.text == "" {
			return goerr.Wrap(ErrInvalidPayload, "text is required", goerr.V("kind", p.kind))
		}

	case PayloadFile:
		if p.file == nil {
			return goerr.Wrap(ErrInvalidPayload, "file is required", goerr.V("kind", p.kind))
		}
		if p.file.Filename == "" && p.file.Title == "" {
			return goerr.Wrap(ErrInvalidPayload, "file name or title is required", goerr.V("kind", p.kind))
		}
		if len(p.file.Content) == 0 {
			return goerr.Wrap(ErrInvalidPayload, "file content is empty",
				goerr.V("kind", p.kind), goerr.V("filename", p.file.Filename))
		}

	case PayloadAttachments:
		if len(p.attachments) == 0 {
			return goerr.Wrap(ErrInvalidPayload, "at least one attachment is required", goerr.V("kind", p.kind))
		}
		for i, a := range p.attachments {
			if a.Text == "" {
				return goerr.Wrap(ErrInvalidPayload, "attachment text is required",
					goerr.V("kind", p.kind), goerr.V("index", i))
			}
		}

	case PayloadBlocks:
		if len(p.blocks) == 0 {
			return goerr.Wrap(ErrInvalidPayload, "at least one block is required", goerr.V("kind", p.kind))
		}

	default:
		return goerr.Wrap(ErrInvalidPayload, "unknown payload kind", goerr.V("kind", p.kind))
	}

	return nil
}
