package slackapi

import "encoding/json"

// EventCallback is the events_api envelope payload wrapper.
type EventCallback struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

// MentionEvent is an app_mention event: free text plus zero or more attachments.
type MentionEvent struct {
	Type    string `json:"type"`
	User    string `json:"user"`
	Text    string `json:"text"`
	TS      string `json:"ts"`
	Channel string `json:"channel"`
	Files   []File `json:"files"`
}

// File is the attachment metadata the relay needs.
type File struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Mimetype           string `json:"mimetype"`
	URLPrivateDownload string `json:"url_private_download"`
}

// SlashCommand is a slash_commands envelope payload.
type SlashCommand struct {
	Command   string `json:"command"`
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
}
