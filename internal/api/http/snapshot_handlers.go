package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/seed"
	"github.com/mind-engage/mindengage-quiz/internal/storage"
)

const (
	snapshotPrefix = "snapshots/"
	maxImportBytes = 4 << 20
)

// POST /api/admin/snapshots
func CreateSnapshotHandler(store quiz.QuestionStore, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.ListQuestions(r.Context())
		if err != nil {
			respondErr(w, r, err)
			return
		}
		data, err := seed.Marshal(qs)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		key := snapshotPrefix + "questions-" + time.Now().UTC().Format("20060102T150405.000") + ".yaml"
		key, err = blobs.Put(key, bytes.NewReader(data))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		w.Header().Set("Location", "/api/admin/snapshots/"+strings.TrimPrefix(key, snapshotPrefix))
		respondJSON(w, http.StatusCreated, map[string]any{"key": key, "questions": len(qs)})
	}
}

// GET /api/admin/snapshots
func ListSnapshotsHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys, err := blobs.List(snapshotPrefix)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if keys == nil {
			keys = []string{}
		}
		respondJSON(w, http.StatusOK, keys)
	}
}

// GET /api/admin/snapshots/{name}
func GetSnapshotHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, err := blobs.Get(snapshotPrefix + chi.URLParam(r, "name"))
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrBadKey) {
			respondError(w, http.StatusNotFound, "snapshot not found", "")
			return
		}
		if err != nil {
			respondErr(w, r, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/yaml")
		if _, err := io.Copy(w, rc); err != nil {
			log.Printf("stream snapshot: %v", err)
		}
	}
}

// POST /api/admin/questions/import  (body: question bank YAML)
func ImportQuestionsHandler(store quiz.QuestionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			respondErr(w, r, fmt.Errorf("%w: read body: %v", quiz.ErrInvalid, err))
			return
		}
		qs, err := seed.Parse(data)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if len(qs) == 0 {
			respondErr(w, r, fmt.Errorf("%w: no questions in body", quiz.ErrInvalid))
			return
		}
		created, err := seed.Import(r.Context(), store, qs)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"imported": len(created)})
	}
}
