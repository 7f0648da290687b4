package model

import "time"

// SourcePost is a post the bot reacts to. It is read-only once fetched.
type SourcePost struct {
	ID        string
	Text      string
	Author    string // username without '@' when known, else the platform user id
	CreatedAt time.Time
	Likes     int
	Retweets  int
	Replies   int
}

// GeneratedImage holds the result URLs of one image generation call plus the
// parameters that produced them.
type GeneratedImage struct {
	URLs   []string
	Prompt string
	Width  int
	Height int
	Steps  int
	Count  int
}

// FirstURL returns the first result URL, or "" when there is none.
func (g *GeneratedImage) FirstURL() string {
	if g == nil || len(g.URLs) == 0 {
		return ""
	}
	return g.URLs[0]
}

// MediaHandle is the platform id of an uploaded media file.
type MediaHandle string

// PostResult is the platform's confirmation of a created post.
type PostResult struct {
	ID   string
	Text string
}

// --- v2 create tweet ---

type TweetReq struct {
	Text  string      `json:"text"`
	Media *TweetMedia `json:"media,omitempty"`
}
type TweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}
type TweetResp struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// --- v2 read ---

type UserData struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type UserResp struct {
	Data   *UserData   `json:"data"`
	Errors []V2Problem `json:"errors,omitempty"`
}

type PublicMetrics struct {
	LikeCount    int `json:"like_count"`
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	QuoteCount   int `json:"quote_count"`
}

type TweetData struct {
	ID             string        `json:"id"`
	Text           string        `json:"text"`
	AuthorID       string        `json:"author_id"`
	ConversationID string        `json:"conversation_id"`
	CreatedAt      time.Time     `json:"created_at"`
	PublicMetrics  PublicMetrics `json:"public_metrics"`
}

type TimelineResp struct {
	Data []TweetData `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
	Errors []V2Problem `json:"errors,omitempty"`
}

// V2Problem is the problem+json shape the v2 API uses for errors, both as the
// top-level body and inside "errors" arrays of partial responses.
type V2Problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Status int    `json:"status,omitempty"`
}

// --- v1.1 media/upload (simple upload) ---

type MediaUploadResp struct {
	MediaID       int64  `json:"media_id"`
	MediaIDString string `json:"media_id_string"`
}

// --- images/generations ---

type ImageReq struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Steps          int    `json:"steps"`
	N              int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type ImageResp struct {
	Data []struct {
		Index int    `json:"index"`
		URL   string `json:"url"`
	} `json:"data"`
}

type ImageErrResp struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// --- oEmbed ---

type OEmbedResp struct {
	URL        string `json:"url"`
	AuthorName string `json:"author_name"`
	AuthorURL  string `json:"author_url"`
	HTML       string `json:"html"`
}
