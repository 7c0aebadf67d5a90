package server

import (
	"bytes"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/procgen3d/internal/generate"
	"github.com/Faultbox/procgen3d/internal/modifier"
	"github.com/Faultbox/procgen3d/internal/store"
	"github.com/Faultbox/procgen3d/pkg/obj"
)

// Prompt length limits in characters, after trimming.
const (
	MinPromptLen = 3
	MaxPromptLen = 200
)

type generateRequest struct {
	Prompt string `json:"prompt"`
	Image  string `json:"image,omitempty"`
	Style  string `json:"style,omitempty"`
}

type generateResponse struct {
	OBJContent         string       `json:"obj_content"`
	ModelID            string       `json:"model_id"`
	PreviewThumbnail   *string      `json:"preview_thumbnail"`
	AvailableModifiers modifier.Set `json:"available_modifiers"`
}

type modifyRequest struct {
	ModelID   string        `json:"model_id"`
	Modifiers obj.Modifiers `json:"modifiers"`
}

type modifyResponse struct {
	OBJContent       string  `json:"obj_content"`
	PreviewThumbnail *string `json:"preview_thumbnail"`
}

type statsResponse struct {
	CachedModels int      `json:"cached_models"`
	TTLSeconds   int64    `json:"ttl_seconds"`
	ModelIDs     []string `json:"model_ids"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.log, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Procedural 3D Generator API",
		"version": Version,
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) error {
	var req generateRequest
	if err := readJSON(r, &req); err != nil {
		return wrapError(http.StatusBadRequest, err, "Invalid request body")
	}

	gen, err := parseGenerateRequest(req)
	if err != nil {
		return err
	}
	if req.Image != "" {
		img, err := generate.DecodeImage(req.Image)
		if err != nil {
			// A broken reference image is not worth failing the request.
			s.log.Warn("ignoring reference image", zap.Error(err))
		} else {
			gen.Image = img
		}
	}

	s.log.Info("generating model", zap.String("prompt", gen.Prompt), zap.String("style", gen.Style))

	text, err := s.provider.Generate(r.Context(), gen)
	if err != nil {
		return wrapError(http.StatusInternalServerError, err, "Generation failed")
	}
	m, err := obj.ValidateText(text)
	if err != nil {
		return wrapError(http.StatusInternalServerError, err, "Generated model is invalid")
	}
	s.logDiagnostics("generated model", m)

	mods, err := s.extractor.Extract(r.Context(), text, gen.Prompt)
	if err != nil {
		return wrapError(http.StatusInternalServerError, err, "Feature extraction failed")
	}

	entry := s.store.Put(text, mods, gen.Prompt)
	s.log.Info("model generated",
		zap.String("model_id", entry.ID),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("faces", len(m.Faces)),
		zap.Strings("modifiers", mods.Names()))

	writeJSON(w, s.log, http.StatusOK, generateResponse{
		OBJContent:         text,
		ModelID:            entry.ID,
		AvailableModifiers: mods,
	})
	return nil
}

// parseGenerateRequest trims and checks the prompt and style.
func parseGenerateRequest(req generateRequest) (generate.Request, error) {
	prompt := strings.TrimSpace(req.Prompt)
	switch n := utf8.RuneCountInString(prompt); {
	case n == 0:
		return generate.Request{}, newError(http.StatusUnprocessableEntity, "Invalid prompt", "Prompt cannot be empty")
	case n < MinPromptLen:
		return generate.Request{}, newError(http.StatusUnprocessableEntity, "Invalid prompt", "Prompt must be at least 3 characters")
	case n > MaxPromptLen:
		return generate.Request{}, newError(http.StatusUnprocessableEntity, "Invalid prompt", "Prompt must be at most 200 characters")
	}

	style := req.Style
	if style == "" {
		style = generate.DefaultStyle
	}
	if !generate.ValidStyle(style) {
		return generate.Request{}, newError(http.StatusUnprocessableEntity, "Invalid style",
			"Style must be one of realistic, low-poly, stylized")
	}
	return generate.Request{Prompt: prompt, Style: style}, nil
}

func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) error {
	var req modifyRequest
	if err := readJSON(r, &req); err != nil {
		return wrapError(http.StatusBadRequest, err, "Invalid request body")
	}
	if req.ModelID == "" {
		return newError(http.StatusUnprocessableEntity, "Invalid request", "model_id is required")
	}
	if len(req.Modifiers) == 0 {
		return newError(http.StatusUnprocessableEntity, "Invalid request", "At least one modifier must be provided")
	}

	s.log.Info("modifying model", zap.String("model_id", req.ModelID), zap.Strings("modifiers", req.Modifiers.Names()))

	entry, err := s.store.Update(req.ModelID, func(e *store.Entry) error {
		if err := e.Modifiers.Validate(req.Modifiers); err != nil {
			return modifierError(err, e.Modifiers)
		}

		text, m, err := obj.Modify(e.OBJ, req.Modifiers)
		if m != nil {
			s.logDiagnostics("modified model", m)
		}
		switch {
		case errors.Is(err, obj.ErrEmptyOrDegenerate):
			return wrapError(http.StatusUnprocessableEntity, err, "Modification leaves no geometry")
		case err != nil:
			return wrapError(http.StatusInternalServerError, err, "Stored model is unreadable")
		}
		e.OBJ = text
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return newError(http.StatusNotFound, "Model not found or expired", req.ModelID)
	}
	if err != nil {
		return err
	}

	s.log.Info("model modified", zap.String("model_id", entry.ID))
	writeJSON(w, s.log, http.StatusOK, modifyResponse{OBJContent: entry.OBJ})
	return nil
}

// modifierError reports every validation failure and the available names.
func modifierError(err error, available modifier.Set) *apiError {
	msgs := make([]string, 0)
	for _, e := range multierr.Errors(err) {
		msgs = append(msgs, e.Error())
	}
	detail := strings.Join(msgs, "; ")
	if errors.Is(err, modifier.ErrUnknownModifier) {
		detail += ". Available: " + strings.Join(available.Names(), ", ")
	}
	return &apiError{Status: http.StatusBadRequest, Msg: "Invalid modifiers", Detail: detail, Err: err}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	entry, err := s.store.Get(id)
	if err != nil {
		return newError(http.StatusNotFound, "Model not found or expired", id)
	}

	base := "model_" + shortID(id)
	switch format := r.URL.Query().Get("format"); format {
	case "", "obj":
		writeFile(w, s.log, []byte(entry.OBJ), "text/plain; charset=utf-8", base+".obj")

	case "glb":
		m, err := obj.ParseString(entry.OBJ)
		if err != nil {
			return wrapError(http.StatusInternalServerError, err, "Stored model is unreadable")
		}
		var buf bytes.Buffer
		if err := m.ExportGLB(&buf); err != nil {
			if errors.Is(err, obj.ErrEmptyOrDegenerate) {
				return wrapError(http.StatusUnprocessableEntity, err, "Model has no exportable geometry")
			}
			return wrapError(http.StatusInternalServerError, errors.Wrapf(err, "exporting %s", id), "Export failed")
		}
		writeFile(w, s.log, buf.Bytes(), "model/gltf-binary", base+".glb")

	default:
		return newError(http.StatusBadRequest, "Invalid format", "format must be obj or glb, got "+format)
	}
	return nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.store.Stats()
	writeJSON(w, s.log, http.StatusOK, statsResponse{
		CachedModels: stats.Count,
		TTLSeconds:   int64(stats.TTL.Seconds()),
		ModelIDs:     stats.IDs,
	})
}

// handleDelete always succeeds; deleting an unknown id is a no-op.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.store.Delete(id) {
		s.log.Info("model deleted", zap.String("model_id", id))
	}
	writeJSON(w, s.log, http.StatusOK, map[string]string{"status": "deleted", "model_id": id})
}

func (s *Server) logDiagnostics(msg string, m *obj.Model) {
	for _, d := range m.Diagnostics {
		s.log.Debug(msg, zap.Stringer("kind", d.Kind), zap.String("diagnostic", d.Message))
	}
	if n := len(m.Diagnostics); n > 0 {
		s.log.Info(msg+" with diagnostics", zap.Int("count", n))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
