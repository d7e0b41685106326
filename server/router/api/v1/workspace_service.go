package v1

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/jonathanprogram2/obel/assistant"
	"github.com/jonathanprogram2/obel/internal/util"
	"github.com/jonathanprogram2/obel/store"
)

const (
	maxDocumentSize  = 32 << 20 // 32 MiB
	thumbnailMaxEdge = 512
)

// WorkspaceService persists the Kanban board and the user's uploaded
// documents under the instance data directory.
type WorkspaceService struct {
	Store   *store.Store
	DataDir string

	thumbnailSemaphore *semaphore.Weighted
}

func (s *WorkspaceService) RegisterRoutes(g *echo.Group) {
	g.GET("/workspace/board", s.GetBoard)
	g.PUT("/workspace/board", s.SaveBoard)
	g.GET("/workspace/docs", s.ListDocuments)
	g.POST("/workspace/docs", s.UploadDocument)
	g.GET("/workspace/docs/:key", s.DownloadDocument)
	g.DELETE("/workspace/docs/:key", s.DeleteDocument)
}

func boardUserKey(c echo.Context) string {
	key := strings.TrimSpace(c.QueryParam("userId"))
	if key == "" {
		key = assistant.DefaultUserID
	}
	return key
}

// GetBoard returns the persisted board snapshot, or an empty board when the
// user has never saved one.
func (s *WorkspaceService) GetBoard(c echo.Context) error {
	userKey := boardUserKey(c)
	board, err := s.Store.GetBoard(c.Request().Context(), userKey)
	if err != nil {
		slog.Error("load board failed", "user", userKey, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to load board"})
	}
	if board == nil {
		return c.JSON(http.StatusOK, map[string]any{"tasks": assistant.BoardSnapshot{}})
	}

	var tasks assistant.BoardSnapshot
	if err := json.Unmarshal([]byte(board.TasksJSON), &tasks); err != nil {
		slog.Warn("stored board is not valid JSON, resetting", "user", userKey, "error", err)
		tasks = assistant.BoardSnapshot{}
	}
	return c.JSON(http.StatusOK, map[string]any{"tasks": tasks, "updatedTs": board.UpdatedTs})
}

type saveBoardPayload struct {
	Tasks assistant.BoardSnapshot `json:"tasks"`
}

// SaveBoard replaces the persisted board snapshot for the user.
func (s *WorkspaceService) SaveBoard(c echo.Context) error {
	var payload saveBoardPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Invalid request body"})
	}
	if payload.Tasks == nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing required fields: tasks"})
	}

	raw, err := json.Marshal(payload.Tasks)
	if err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Invalid board"})
	}

	userKey := boardUserKey(c)
	board, err := s.Store.UpsertBoard(c.Request().Context(), &store.Board{
		UserKey:   userKey,
		TasksJSON: string(raw),
	})
	if err != nil {
		slog.Error("save board failed", "user", userKey, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to save board"})
	}
	return c.JSON(http.StatusOK, map[string]any{"updatedTs": board.UpdatedTs})
}

type documentInfo struct {
	Key       string `json:"key"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	Thumbnail bool   `json:"thumbnail"`
	CreatedTs int64  `json:"createdTs"`
}

func (s *WorkspaceService) docsDir() string {
	return filepath.Join(s.DataDir, "docs")
}

func (s *WorkspaceService) thumbsDir() string {
	return filepath.Join(s.DataDir, "thumbnails")
}

// keyAndName splits a stored filename of the form "<key>_<original name>".
func keyAndName(stored string) (string, string, bool) {
	key, name, ok := strings.Cut(stored, "_")
	if !ok || key == "" || name == "" {
		return "", "", false
	}
	return key, name, true
}

// ListDocuments returns uploaded documents, newest first.
func (s *WorkspaceService) ListDocuments(c echo.Context) error {
	entries, err := os.ReadDir(s.docsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusOK, map[string]any{"documents": []*documentInfo{}})
		}
		slog.Error("list documents failed", "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to list documents"})
	}

	docs := make([]*documentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, name, ok := keyAndName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		_, thumbErr := os.Stat(filepath.Join(s.thumbsDir(), key+".jpg"))
		docs = append(docs, &documentInfo{
			Key:       key,
			Filename:  name,
			Size:      info.Size(),
			Thumbnail: thumbErr == nil,
			CreatedTs: info.ModTime().Unix(),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedTs > docs[j].CreatedTs })
	return c.JSON(http.StatusOK, map[string]any{"documents": docs})
}

// UploadDocument stores a multipart file under the data directory and, for
// images, generates a thumbnail in the background.
func (s *WorkspaceService) UploadDocument(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing required field: file"})
	}
	if fileHeader.Size > maxDocumentSize {
		return c.JSON(http.StatusRequestEntityTooLarge, &errorResponse{Error: "File too large"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Unreadable upload"})
	}
	defer src.Close()

	if err := os.MkdirAll(s.docsDir(), 0o755); err != nil {
		slog.Error("create docs dir failed", "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to store document"})
	}

	key := util.GenShortUUID()
	name := filepath.Base(fileHeader.Filename)
	path := filepath.Join(s.docsDir(), key+"_"+name)

	dst, err := os.Create(path)
	if err != nil {
		slog.Error("create document failed", "path", path, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to store document"})
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		slog.Error("write document failed", "path", path, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to store document"})
	}
	dst.Close()

	if isImageFilename(name) {
		go s.generateThumbnail(key, path)
	}

	return c.JSON(http.StatusCreated, &documentInfo{
		Key:      key,
		Filename: name,
		Size:     fileHeader.Size,
	})
}

func isImageFilename(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

// generateThumbnail renders a bounded JPEG preview. The semaphore keeps
// concurrent decodes from blowing up memory on large uploads.
func (s *WorkspaceService) generateThumbnail(key, path string) {
	if err := s.thumbnailSemaphore.Acquire(context.Background(), 1); err != nil {
		return
	}
	defer s.thumbnailSemaphore.Release(1)

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		slog.Warn("thumbnail decode failed", "path", path, "error", err)
		return
	}
	thumb := imaging.Fit(img, thumbnailMaxEdge, thumbnailMaxEdge, imaging.Lanczos)

	if err := os.MkdirAll(s.thumbsDir(), 0o755); err != nil {
		slog.Warn("create thumbnails dir failed", "error", err)
		return
	}
	out := filepath.Join(s.thumbsDir(), key+".jpg")
	if err := imaging.Save(thumb, out, imaging.JPEGQuality(80)); err != nil {
		slog.Warn("thumbnail save failed", "path", out, "error", err)
	}
}

// findDocument resolves a document key to its stored path and original name.
func (s *WorkspaceService) findDocument(key string) (string, string, error) {
	entries, err := os.ReadDir(s.docsDir())
	if err != nil {
		return "", "", err
	}
	for _, entry := range entries {
		if entryKey, name, ok := keyAndName(entry.Name()); ok && entryKey == key {
			return filepath.Join(s.docsDir(), entry.Name()), name, nil
		}
	}
	return "", "", os.ErrNotExist
}

// DownloadDocument streams the stored file back as an attachment.
func (s *WorkspaceService) DownloadDocument(c echo.Context) error {
	key := c.Param("key")
	path, name, err := s.findDocument(key)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, &errorResponse{Error: "Document not found"})
		}
		slog.Error("document lookup failed", "key", key, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to read document"})
	}
	return c.Attachment(path, name)
}

// DeleteDocument removes the document and its thumbnail if present.
func (s *WorkspaceService) DeleteDocument(c echo.Context) error {
	key := c.Param("key")
	path, _, err := s.findDocument(key)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusNotFound, &errorResponse{Error: "Document not found"})
		}
		slog.Error("document lookup failed", "key", key, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to delete document"})
	}
	if err := os.Remove(path); err != nil {
		slog.Error("document delete failed", "key", key, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to delete document"})
	}
	os.Remove(filepath.Join(s.thumbsDir(), key+".jpg"))
	return c.NoContent(http.StatusNoContent)
}
