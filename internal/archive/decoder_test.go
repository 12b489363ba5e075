package archive

import (
	"errors"
	"strings"
	"testing"
)

const sampleTweetFile = `window.YTD.tweets.part0 = [
  {
    "tweet" : {
      "id_str" : "1001",
      "created_at" : "Tue Feb 07 21:32:03 +0000 2023",
      "full_text" : "hello world https://t.co/abc",
      "retweet_count" : "4",
      "favorite_count" : "12",
      "retweeted" : false,
      "source" : "<a href=\"https://example.com\">Web App</a>",
      "lang" : "en",
      "entities" : {
        "urls" : [
          {
            "url" : "https://t.co/abc",
            "expanded_url" : "https://example.com/page",
            "display_url" : "example.com/page"
          }
        ],
        "hashtags" : [ { "text" : "golang" } ],
        "symbols" : [ { "text" : "ACME" } ],
        "user_mentions" : [ { "screen_name" : "someone", "name" : "Someone" } ]
      }
    }
  }
]`

func TestDecodeTweetFile_StripsAssignmentPrefix(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tweets.js", sampleTweetFile)

	tweets, err := DecodeTweetFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tweets) != 1 {
		t.Fatalf("expected 1 tweet, got %d", len(tweets))
	}

	tweet := tweets[0]
	if tweet.IDStr != "1001" {
		t.Errorf("expected id 1001, got %s", tweet.IDStr)
	}
	if tweet.FullText != "hello world https://t.co/abc" {
		t.Errorf("unexpected text: %s", tweet.FullText)
	}
	if len(tweet.Entities.URLs) != 1 || tweet.Entities.URLs[0].ExpandedURL != "https://example.com/page" {
		t.Errorf("unexpected url entities: %+v", tweet.Entities.URLs)
	}
}

func TestDecodeTweetFile_Sanitizes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tweets.js", sampleTweetFile)

	tweets, err := DecodeTweetFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tweet := tweets[0]
	if tweet.Source != "" {
		t.Errorf("expected source to be stripped, got %q", tweet.Source)
	}
	if tweet.Lang != "" {
		t.Errorf("expected lang to be stripped, got %q", tweet.Lang)
	}
	if tweet.Entities.Mentions != nil {
		t.Errorf("expected mentions to be stripped, got %+v", tweet.Entities.Mentions)
	}
}

func TestDecodeTweetFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tweets.js", "window.YTD.tweets.part0 = [ { not json")

	_, err := DecodeTweetFile(path)

	var malformed *MalformedArchiveError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedArchiveError, got %v", err)
	}
	if malformed.Path != path {
		t.Errorf("expected error to carry path %s, got %s", path, malformed.Path)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("expected error message to include the path: %s", err)
	}
}

func TestDecodeAccountFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "account.js", `window.YTD.account.part0 = [
  {
    "account" : {
      "username" : "someuser",
      "accountId" : "12345",
      "accountDisplayName" : "Some User"
    }
  }
]`)

	account, err := DecodeAccountFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.Username != "someuser" {
		t.Errorf("expected username someuser, got %s", account.Username)
	}
	if account.AccountID != "12345" {
		t.Errorf("expected account id 12345, got %s", account.AccountID)
	}
	if account.DisplayName != "Some User" {
		t.Errorf("expected display name, got %s", account.DisplayName)
	}
}

func TestDecodeAccountFile_NotAnArray(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "account.js", `window.YTD.account.part0 = { "account": {} }`)

	_, err := DecodeAccountFile(path)

	var malformed *MalformedArchiveError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedArchiveError, got %v", err)
	}
}

func TestDecodeAccountFile_Empty(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "account.js", `window.YTD.account.part0 = []`)

	_, err := DecodeAccountFile(path)

	var malformed *MalformedArchiveError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedArchiveError, got %v", err)
	}
}

func TestDecodeRecords_ValidatesEagerly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tweets.js", `window.YTD.tweets.part0 = [
  { "tweet" : { "id_str" : "1", "full_text" : "no timestamp here" } }
]`)

	_, err := DecodeRecords(path)

	var malformed *MalformedArchiveError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedArchiveError for missing created_at, got %v", err)
	}
}
