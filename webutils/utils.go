package webutils

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	io.Copy(w, in)
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, err)
	} else {
		w.Header().Set("Content-Type", "application/json")
		WriteResult(w, res)
	}
}

func WriteYamlFile(w http.ResponseWriter, v interface{}, fileName string) {
	if data, err := yaml.Marshal(v); err != nil {
		WriteError(w, errors.Wrapf(err, "Failed to marshal"))
	} else {
		WriteFile(w, bytes.NewReader(data), fileName+".yaml")
	}
}

// ReadFormFile pulls an uploaded file out of a multipart POST.
func ReadFormFile(r *http.Request, formFileKey string) ([]byte, error) {
	if strings.ToUpper(r.Method) != "POST" {
		return nil, errors.Errorf("Invalid http method %q", r.Method)
	}

	f, _, err := r.FormFile(formFileKey)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read")
	}
	return data, nil
}

func WriteResult(w http.ResponseWriter, data []byte) {
	_, err := w.Write(data)
	if err != nil {
		log.Printf("Error when writing response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	w.WriteHeader(http.StatusInternalServerError)
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr == nil {
		log.Printf("HERR: %v", string(data))
		WriteResult(w, data)
	} else {
		log.Printf("Failed to marshal error %v: %v", err, merr)
	}
}
