package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// RawTweet mirrors the wire shape of one record inside a tweets file. The
// export wraps every record in an envelope object with a single "tweet"
// key. Counts are encoded as strings.
type RawTweet struct {
	ID                   string          `json:"id"`
	IDStr                string          `json:"id_str"`
	CreatedAt            string          `json:"created_at"`
	FullText             string          `json:"full_text"`
	InReplyToStatusID    string          `json:"in_reply_to_status_id"`
	InReplyToStatusIDStr string          `json:"in_reply_to_status_id_str"`
	RetweetCount         string          `json:"retweet_count"`
	FavoriteCount        string          `json:"favorite_count"`
	Retweeted            bool            `json:"retweeted"`
	Entities             RawEntities     `json:"entities"`
	ExtendedEntities     json.RawMessage `json:"extended_entities"`

	// Fields below are present in the export but never consumed by the
	// import; Sanitize clears them.
	EditInfo            json.RawMessage `json:"edit_info"`
	Source              string          `json:"source"`
	Lang                string          `json:"lang"`
	Favorited           bool            `json:"favorited"`
	InReplyToUserID     string          `json:"in_reply_to_user_id"`
	InReplyToScreenName string          `json:"in_reply_to_screen_name"`
	DisplayTextRange    []string        `json:"display_text_range"`
}

// RawEntities is the wire shape of a record's entity block.
type RawEntities struct {
	URLs     []RawURL     `json:"urls"`
	Hashtags []RawText    `json:"hashtags"`
	Symbols  []RawText    `json:"symbols"`
	Media    []RawMedia   `json:"media"`
	Mentions []RawMention `json:"user_mentions"`
}

type RawURL struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
	DisplayURL  string `json:"display_url"`
}

type RawText struct {
	Text string `json:"text"`
}

type RawMedia struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	MediaURL string `json:"media_url"`
}

type RawMention struct {
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
}

type tweetEnvelope struct {
	Tweet RawTweet `json:"tweet"`
}

// Sanitize clears the fields the import never reads. Large archives carry a
// lot of edit metadata and mention lists; dropping them up front bounds the
// peak memory of a run.
func Sanitize(t *RawTweet) {
	t.EditInfo = nil
	t.Source = ""
	t.Lang = ""
	t.Favorited = false
	t.InReplyToUserID = ""
	t.InReplyToScreenName = ""
	t.DisplayTextRange = nil
	t.Entities.Mentions = nil
}

// DecodeTweetFile reads one tweets file and returns its sanitized raw
// records. Archive files are JS variable assignments, not plain JSON; the
// assignment prefix ends at the first '[' character, where the JSON array
// begins. A parse failure is fatal for the run and surfaces as
// MalformedArchiveError.
func DecodeTweetFile(path string) ([]RawTweet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var envelopes []tweetEnvelope
	if err := json.Unmarshal(stripAssignmentPrefix(data), &envelopes); err != nil {
		return nil, &MalformedArchiveError{Path: path, Err: err}
	}

	tweets := make([]RawTweet, 0, len(envelopes))
	for _, env := range envelopes {
		tweet := env.Tweet
		Sanitize(&tweet)
		tweets = append(tweets, tweet)
	}

	return tweets, nil
}

// DecodeAccountFile reads the single account metadata file. The file holds
// a one-element array whose first element wraps an "account" object.
func DecodeAccountFile(path string) (AccountMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AccountMetadata{}, fmt.Errorf("read %s: %w", path, err)
	}

	var envelopes []struct {
		Account struct {
			Username           string `json:"username"`
			AccountID          string `json:"accountId"`
			AccountDisplayName string `json:"accountDisplayName"`
		} `json:"account"`
	}
	if err := json.Unmarshal(stripAssignmentPrefix(data), &envelopes); err != nil {
		return AccountMetadata{}, &MalformedArchiveError{Path: path, Err: err}
	}
	if len(envelopes) == 0 {
		return AccountMetadata{}, &MalformedArchiveError{Path: path, Err: fmt.Errorf("account data is empty")}
	}

	acc := envelopes[0].Account
	return AccountMetadata{
		Username:    acc.Username,
		AccountID:   acc.AccountID,
		DisplayName: acc.AccountDisplayName,
	}, nil
}

// stripAssignmentPrefix drops everything before the first '[' character.
// The exact prefix varies per file ("window.YTD.tweets.part0 = " and so
// on), so the scan does not assume its length.
func stripAssignmentPrefix(data []byte) []byte {
	if i := bytes.IndexByte(data, '['); i >= 0 {
		return data[i:]
	}
	return data
}

// DecodeRecords decodes one tweets file all the way to validated Records.
func DecodeRecords(path string) ([]Record, error) {
	raws, err := DecodeTweetFile(path)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		rec, err := NewRecord(raw)
		if err != nil {
			return nil, &MalformedArchiveError{Path: path, Err: err}
		}
		records = append(records, rec)
	}

	return records, nil
}
