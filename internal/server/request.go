package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/scalars"
	"github.com/hanpama/graphcore/internal/schema"
)

const errBodyTooLargeMessage = "body too large"

// multipartMemory is the part of a multipart form kept in memory; larger
// files spill to temporary files.
const multipartMemory = 32 << 20

func noCleanup() {}

// parseRequest decodes the operations of r. batch reports whether the body
// was a JSON array. cleanup releases uploaded files and must always be
// called.
func parseRequest(w http.ResponseWriter, r *http.Request, maxBody int64) (reqs []*schema.Request, batch bool, cleanup func(), berr *executor.Error) {
	if r.Method == http.MethodGet {
		req, err := decodeGET(r)
		if err != nil {
			return nil, false, noCleanup, err
		}
		return []*schema.Request{req}, false, noCleanup, nil
	}

	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "", "application/json":
		body, err := readBody(r, maxBody)
		if err != nil {
			return nil, false, noCleanup, err
		}
		reqs, batch, err := decodeOperations(body)
		return reqs, batch, noCleanup, err
	case "multipart/form-data":
		if params["boundary"] == "" {
			return nil, false, noCleanup, &executor.Error{Message: "missing multipart boundary"}
		}
		return decodeMultipart(w, r, maxBody)
	}
	return nil, false, noCleanup, &executor.Error{Message: "unsupported Content-Type"}
}

func decodeGET(r *http.Request) (*schema.Request, *executor.Error) {
	q := r.URL.Query().Get("query")
	if q == "" {
		return nil, &executor.Error{Message: "missing 'query'"}
	}
	vars := map[string]any{}
	if v := r.URL.Query().Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &vars); err != nil {
			return nil, &executor.Error{Message: "invalid 'variables' JSON"}
		}
	}
	var exts map[string]any
	if v := r.URL.Query().Get("extensions"); v != "" {
		if err := json.Unmarshal([]byte(v), &exts); err != nil {
			return nil, &executor.Error{Message: "invalid 'extensions' JSON"}
		}
	}
	return &schema.Request{
		Query:         q,
		OperationName: r.URL.Query().Get("operationName"),
		Variables:     vars,
		Extensions:    exts,
	}, nil
}

func readBody(r *http.Request, maxBody int64) ([]byte, *executor.Error) {
	defer r.Body.Close()
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &executor.Error{Message: "failed to read body", Err: err}
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return nil, &executor.Error{Message: errBodyTooLargeMessage}
	}
	return body, nil
}

// decodeOperations decodes a single operation object or a batch array.
func decodeOperations(body []byte) ([]*schema.Request, bool, *executor.Error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var arr []*schema.Request
		if err := json.Unmarshal(body, &arr); err != nil {
			return nil, true, &executor.Error{Message: "invalid JSON", Err: err}
		}
		if len(arr) == 0 {
			return nil, true, &executor.Error{Message: "empty batch"}
		}
		for _, req := range arr {
			if req == nil || req.Query == "" {
				return nil, true, &executor.Error{Message: "missing 'query'"}
			}
			if req.Variables == nil {
				req.Variables = map[string]any{}
			}
		}
		return arr, true, nil
	}

	var req schema.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false, &executor.Error{Message: "invalid JSON", Err: err}
	}
	if req.Query == "" {
		return nil, false, &executor.Error{Message: "missing 'query'"}
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}
	return []*schema.Request{&req}, false, nil
}

// decodeMultipart decodes a GraphQL multipart request: an "operations"
// field, a "map" field from file field names to variable paths, and the
// file fields themselves.
func decodeMultipart(w http.ResponseWriter, r *http.Request, maxBody int64) ([]*schema.Request, bool, func(), *executor.Error) {
	if maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, false, noCleanup, &executor.Error{Message: errBodyTooLargeMessage}
		}
		return nil, false, noCleanup, &executor.Error{Message: "invalid multipart form", Err: err}
	}
	form := r.MultipartForm
	cleanup := func() { _ = form.RemoveAll() }

	operations := form.Value["operations"]
	if len(operations) == 0 {
		return nil, false, cleanup, &executor.Error{Message: "missing 'operations' field"}
	}
	reqs, batch, berr := decodeOperations([]byte(operations[0]))
	if berr != nil {
		return nil, batch, cleanup, berr
	}

	var fileMap map[string][]string
	if m := form.Value["map"]; len(m) > 0 {
		if err := json.Unmarshal([]byte(m[0]), &fileMap); err != nil {
			return nil, batch, cleanup, &executor.Error{Message: "invalid 'map' JSON", Err: err}
		}
	}
	var files []multipart.File
	cleanup = func() {
		for _, f := range files {
			_ = f.Close()
		}
		_ = form.RemoveAll()
	}
	for field, paths := range fileMap {
		headers := form.File[field]
		if len(headers) == 0 {
			return nil, batch, cleanup, &executor.Error{Message: "missing file field " + strconv.Quote(field)}
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			return nil, batch, cleanup, &executor.Error{Message: "failed to read file " + strconv.Quote(field), Err: err}
		}
		files = append(files, f)
		upload := &scalars.UploadValue{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Content:     f,
		}
		for _, p := range paths {
			if err := placeUpload(reqs, batch, p, upload); err != nil {
				return nil, batch, cleanup, err
			}
		}
	}
	return reqs, batch, cleanup, nil
}

// placeUpload replaces the value at an object path such as
// "variables.files.0", or "0.variables.file" in a batch.
func placeUpload(reqs []*schema.Request, batch bool, path string, upload *scalars.UploadValue) *executor.Error {
	bad := &executor.Error{Message: "invalid file map path " + strconv.Quote(path)}
	segs := strings.Split(path, ".")
	req := reqs[0]
	if batch {
		i, err := strconv.Atoi(segs[0])
		if err != nil || i < 0 || i >= len(reqs) {
			return bad
		}
		req = reqs[i]
		segs = segs[1:]
	}
	if len(segs) < 2 || segs[0] != "variables" {
		return bad
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}

	var cur any = req.Variables
	for i, seg := range segs[1:] {
		last := i == len(segs)-2
		switch c := cur.(type) {
		case map[string]any:
			if last {
				c[seg] = upload
				return nil
			}
			cur = c[seg]
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return bad
			}
			if last {
				c[idx] = upload
				return nil
			}
			cur = c[idx]
		default:
			return bad
		}
	}
	return bad
}
