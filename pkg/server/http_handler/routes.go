/*
 * Copyright (C) 2020-2026, IrineSistiana
 *
 * This file is part of nscache.
 *
 * nscache is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * nscache is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package http_handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fromafrica/nscache/pkg/orchestrator"
)

var errBodyTooLarge = errors.New("request body too large")

// Fixed bodies kept byte-exact for existing clients.
const (
	queryBadRequestBody = `{ "status": "500", "message": "error detected" }`
	writeBadRequestBody = `{ "error": "error detected." }`
)

const reconciledHeader = "X-Nscache-Reconciled"

type queryRequest struct {
	Domain string `json:"domain"`
	Type   string `json:"type"`
}

type writeRequest struct {
	Domain string          `json:"domain"`
	Record json.RawMessage `json:"record"`
}

type queryFound struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Query   string          `json:"query"`
	Record  json.RawMessage `json:"record"`
}

type queryStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type writeUpdated struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Domain  string `json:"domain"`
	Record  string `json:"record"`
}

type writeError struct {
	Error string `json:"error"`
}

func (h *Handler) serveQuery(w ResponseWriter, req Request) orchestrator.Result {
	var q queryRequest
	if err := h.decode(req, &q); err != nil {
		writeRaw(w, http.StatusInternalServerError, queryBadRequestBody)
		return orchestrator.Result{Kind: orchestrator.KindBadRequest, Err: err}
	}

	res := h.opts.Orchestrator.Query(req.Context(), q.Domain, q.Type)
	switch res.Kind {
	case orchestrator.KindFound:
		writeJSON(w, http.StatusOK, queryFound{
			Status:  "200",
			Message: "valid",
			Query:   res.Domain,
			Record:  json.RawMessage(res.Record),
		})
	case orchestrator.KindNotFound:
		writeJSON(w, http.StatusOK, queryStatus{Status: "404", Message: "not found"})
	case orchestrator.KindBadRequest:
		writeRaw(w, http.StatusInternalServerError, queryBadRequestBody)
	default:
		writeJSON(w, http.StatusOK, queryStatus{Status: "500", Message: errMessage(res)})
	}
	return res
}

func (h *Handler) serveUpdate(w ResponseWriter, req Request) orchestrator.Result {
	domain, rec, err := h.decodeWrite(req)
	if err != nil {
		writeRaw(w, http.StatusOK, writeBadRequestBody)
		return orchestrator.Result{Kind: orchestrator.KindBadRequest, Err: err}
	}

	res := h.opts.Orchestrator.UpdateCache(req.Context(), domain, rec)
	switch res.Kind {
	case orchestrator.KindUpdated:
		writeUpdatedBody(w, res)
	case orchestrator.KindBadRequest:
		writeRaw(w, http.StatusOK, writeBadRequestBody)
	case orchestrator.KindDBSystemError:
		writeJSON(w, http.StatusOK, writeError{Error: "db system error"})
	case orchestrator.KindDBMalformedData:
		writeJSON(w, http.StatusOK, writeError{Error: "db malformed data error"})
	case orchestrator.KindDBInvalidData:
		writeJSON(w, http.StatusOK, writeError{Error: "db invalid data error"})
	default:
		writeJSON(w, http.StatusOK, writeError{Error: "system error"})
	}
	return res
}

func (h *Handler) serveCreate(w ResponseWriter, req Request) orchestrator.Result {
	domain, rec, err := h.decodeWrite(req)
	if err != nil {
		writeRaw(w, http.StatusOK, writeBadRequestBody)
		return orchestrator.Result{Kind: orchestrator.KindBadRequest, Err: err}
	}

	res := h.opts.Orchestrator.Create(req.Context(), domain, rec)
	switch res.Kind {
	case orchestrator.KindUpdated:
		writeUpdatedBody(w, res)
	case orchestrator.KindBadRequest:
		writeRaw(w, http.StatusOK, writeBadRequestBody)
	case orchestrator.KindPartialReconciliation:
		w.Header().Set(reconciledHeader, "false")
		writeJSON(w, http.StatusOK, writeError{Error: "system error detected!"})
	default:
		writeJSON(w, http.StatusOK, writeError{Error: "system error detected!"})
	}
	return res
}

func (h *Handler) decode(req Request, v any) error {
	b, err := h.readBody(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}

func (h *Handler) decodeWrite(req Request) (domain, rec string, err error) {
	var wr writeRequest
	if err := h.decode(req, &wr); err != nil {
		return "", "", err
	}
	rec, err = recordText(wr.Record)
	if err != nil {
		return "", "", err
	}
	return wr.Domain, rec, nil
}

// recordText returns the record carried by raw. A json string is taken
// as is, any other json value is taken as its compact text.
func recordText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	buf := new(bytes.Buffer)
	if err := json.Compact(buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func errMessage(res orchestrator.Result) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return res.Kind.String()
}

func writeUpdatedBody(w ResponseWriter, res orchestrator.Result) {
	writeJSON(w, http.StatusOK, writeUpdated{
		Status:  200,
		Message: "record updated",
		Domain:  res.Domain,
		Record:  res.Record,
	})
}

func writeRaw(w ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func writeJSON(w ResponseWriter, code int, v any) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		writeRaw(w, http.StatusInternalServerError, `{"status":"500","message":"encode error"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
