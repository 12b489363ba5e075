package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/birdsite/archivist/internal/config"
	"github.com/birdsite/archivist/internal/contentstore"
	"github.com/birdsite/archivist/internal/importer"
	"github.com/birdsite/archivist/internal/tasks"
)

// ImportArchiveRequest triggers an archive import run.
type ImportArchiveRequest struct {
	AuthorID        int64  `json:"author_id"`
	ItemType        string `json:"item_type"`
	HashtagTaxonomy string `json:"hashtag_taxonomy"`
	SkipReplies     bool   `json:"skip_replies"`
	SkipRetweets    bool   `json:"skip_retweets"`
	SinceDate       string `json:"since_date"`
	UseAsideFormat  bool   `json:"use_aside_format"`
}

// ImportController triggers archive imports over HTTP. With a task client
// configured, imports run in the background and the response carries the
// task ID; without one, the import runs inline and the response carries
// the run summary.
type ImportController struct {
	Store      *contentstore.Store
	TaskClient *tasks.Client
	Archive    config.Archive
}

func (ic *ImportController) Import(c *gin.Context) {
	var req ImportArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.AuthorID == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "author_id is required"})
		return
	}

	if req.SinceDate != "" {
		if _, err := importer.ParseSinceDate(req.SinceDate); err != nil {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if ic.TaskClient != nil {
		ids, err := ic.TaskClient.Add(tasks.ImportArchiveTask{
			AuthorID:        req.AuthorID,
			ItemType:        req.ItemType,
			HashtagTaxonomy: req.HashtagTaxonomy,
			SkipReplies:     req.SkipReplies,
			SkipRetweets:    req.SkipRetweets,
			SinceDate:       req.SinceDate,
			UseAsideFormat:  req.UseAsideFormat,
		}).Save()
		if err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.IndentedJSON(http.StatusAccepted, gin.H{
			"task_id": ids[0],
			"message": "archive import enqueued",
		})
		return
	}

	result, err := ic.runInline(req)
	if err != nil {
		c.IndentedJSON(importErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, result)
}

func (ic *ImportController) runInline(req ImportArchiveRequest) (importer.Result, error) {
	opts := importer.Options{
		ArchiveDir:      ic.Archive.Dir,
		MediaBaseURL:    ic.Archive.MediaBaseURL,
		AuthorID:        req.AuthorID,
		ItemType:        req.ItemType,
		HashtagTaxonomy: req.HashtagTaxonomy,
		SkipReplies:     req.SkipReplies,
		SkipRetweets:    req.SkipRetweets,
		UseAsideFormat:  req.UseAsideFormat,
	}
	if req.SinceDate != "" {
		since, err := importer.ParseSinceDate(req.SinceDate)
		if err != nil {
			return importer.Result{}, err
		}
		opts.SinceDate = &since
	}

	imp := importer.New(ic.Store, opts, importer.Hooks{})
	return imp.Run(context.Background())
}

// importErrorStatus maps import failures to response codes: bad input is
// the caller's fault, everything else is a server-side failure.
func importErrorStatus(err error) int {
	var invalidAuthor *importer.InvalidAuthorError
	var unknownType *importer.UnknownItemTypeError
	var unknownTaxonomy *importer.UnknownTaxonomyError
	var invalidDate *importer.InvalidDateError
	if errors.As(err, &invalidAuthor) || errors.As(err, &unknownType) ||
		errors.As(err, &unknownTaxonomy) || errors.As(err, &invalidDate) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
