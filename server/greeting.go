package server

import (
	"encoding/json"
	"fmt"
	"html"
	"mime"
	"net/http"

	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"
)

type greetingParams struct {
	Name string `schema:"name" json:"name"`
}

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// greet answers "Hello <name>!" with name taken from the query string, then
// from a form or JSON body, defaulting to World.
func greet(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = bodyName(r)
	}
	if name == "" {
		name = "World"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "Hello %s!", html.EscapeString(name))
}

func bodyName(r *http.Request) string {
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}

	var params greetingParams
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			log.WithError(err).Debug("ignoring undecodable greeting body")
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			log.WithError(err).Debug("ignoring unparsable greeting form")
			return ""
		}
		if err := formDecoder.Decode(&params, r.PostForm); err != nil {
			log.WithError(err).Debug("ignoring undecodable greeting form")
		}
	}
	return params.Name
}
