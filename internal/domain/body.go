package domain

import (
	"encoding/json"
	"strings"
)

type BodyKind string

const (
	BodyPlainText  BodyKind = "text"
	BodySharedPost BodyKind = "post-share"
)

// MessageBody is the decoded form of a message body. The stored body is always the raw string,
// decoding only happens at the edges that render it.
type MessageBody interface {
	Kind() BodyKind
	Raw() string
}

type PlainText string

func (t PlainText) Kind() BodyKind { return BodyPlainText }
func (t PlainText) Raw() string    { return string(t) }

type SharedPostRef struct {
	ID      string `json:"_id" validate:"required"`
	Image   string `json:"image,omitempty"`
	Caption string `json:"caption"`
}

type SharedPostAuthor struct {
	ID             UserID `json:"_id"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// SharedPost is the "post-share" envelope a client sends when sharing a post into a chat.
type SharedPost struct {
	Post   SharedPostRef    `json:"post" validate:"required"`
	Author SharedPostAuthor `json:"author"`

	raw string
}

type sharedPostEnvelope struct {
	Type   BodyKind         `json:"type"`
	Post   SharedPostRef    `json:"post"`
	Author SharedPostAuthor `json:"author"`
}

func (s SharedPost) Kind() BodyKind { return BodySharedPost }

func (s SharedPost) Raw() string {
	if s.raw != "" {
		return s.raw
	}
	data, err := json.Marshal(sharedPostEnvelope{Type: BodySharedPost, Post: s.Post, Author: s.Author})
	if err != nil {
		return ""
	}
	return string(data)
}

// DecodeBody classifies a stored body. Anything that is not a well-formed share envelope is plain text.
func DecodeBody(raw string) MessageBody {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return PlainText(raw)
	}
	var env sharedPostEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return PlainText(raw)
	}
	if env.Type != BodySharedPost || env.Post.ID == "" {
		return PlainText(raw)
	}
	return SharedPost{Post: env.Post, Author: env.Author, raw: raw}
}

// Preview is a short human readable rendering used in notification payloads.
func Preview(b MessageBody) string {
	switch v := b.(type) {
	case SharedPost:
		if v.Post.Caption != "" {
			return v.Post.Caption
		}
		return "shared a post"
	default:
		return b.Raw()
	}
}
