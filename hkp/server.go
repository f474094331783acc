package hkp

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/openpgp/armor"

	"github.com/keyfold/keyfold/packet"
	"github.com/keyfold/keyfold/store"
	"github.com/keyfold/keyfold/tpk"
)

// handler serves the HKP protocol from a local certificate store.
type handler struct {
	store *store.Store
	log   *logrus.Entry

	lookups     metrics.Counter
	misses      metrics.Counter
	submissions metrics.Counter
}

// NewHandler returns an http.Handler implementing /pks/lookup (op=get and
// op=index) and /pks/add over the given store.
func NewHandler(st *store.Store) http.Handler {
	h := &handler{
		store:       st,
		log:         logrus.WithField("component", "hkp"),
		lookups:     metrics.GetOrRegisterCounter("hkp.lookups", nil),
		misses:      metrics.GetOrRegisterCounter("hkp.lookup.misses", nil),
		submissions: metrics.GetOrRegisterCounter("hkp.submissions", nil),
	}
	r := mux.NewRouter()
	r.HandleFunc("/pks/lookup", h.lookup).Methods(http.MethodGet)
	r.HandleFunc("/pks/add", h.add).Methods(http.MethodPost)
	return r
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request) {
	h.lookups.Inc(1)

	op := r.URL.Query().Get("op")
	search := r.URL.Query().Get("search")
	if search == "" {
		http.Error(w, "missing search term", http.StatusBadRequest)
		return
	}

	t, err := h.find(search)
	if err == store.ErrNotFound {
		h.misses.Inc(1)
		http.NotFound(w, r)
		return
	} else if err != nil {
		h.log.WithError(err).Error("lookup failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	switch op {
	case "get":
		w.Header().Set("Content-Type", "application/pgp-keys")
		aw, err := armor.Encode(w, PublicKeyType, nil)
		if err == nil {
			err = t.Serialize(aw)
		}
		if err == nil {
			err = aw.Close()
		}
		if err != nil {
			h.log.WithError(err).Error("writing lookup response")
		}
	case "index":
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "info:1:1")
		fmt.Fprintf(w, "pub:%s:%d:0:%d::\n",
			t.FingerprintHex(), t.PrimaryKey.PubKeyAlgo,
			t.PrimaryKey.CreationTime.Unix())
		for _, b := range t.UserIDs {
			if uid := b.Component; uid != nil {
				fmt.Fprintf(w, "uid:%s::::\n", uidString(uid))
			}
		}
	default:
		http.Error(w, "unsupported operation", http.StatusBadRequest)
	}
}

func (h *handler) add(w http.ResponseWriter, r *http.Request) {
	keytext := r.FormValue("keytext")
	if keytext == "" {
		http.Error(w, "missing keytext", http.StatusBadRequest)
		return
	}
	block, err := armor.Decode(strings.NewReader(keytext))
	if err != nil {
		http.Error(w, "invalid armor", http.StatusBadRequest)
		return
	}
	keyring, err := tpk.ReadKeyring(block.Body)
	if err != nil || len(keyring) == 0 {
		http.Error(w, "no certificates in submission", http.StatusBadRequest)
		return
	}
	for _, t := range keyring {
		if err := h.store.Import(t); err != nil {
			h.log.WithError(err).Error("importing submitted certificate")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		h.submissions.Inc(1)
		h.log.WithField("fingerprint", t.FingerprintHex()).Info("certificate submitted")
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Ok")
}

// find resolves an HKP search term: 0x-prefixed key ID or fingerprint, a
// bare fingerprint, or a store label.
func (h *handler) find(search string) (*tpk.TPK, error) {
	if strings.HasPrefix(search, "0x") {
		hexPart := search[2:]
		if len(hexPart) == 16 {
			id, err := strconv.ParseUint(hexPart, 16, 64)
			if err != nil {
				return nil, errors.Wrap(err, "hkp: parse key id")
			}
			return h.store.ByKeyID(id)
		}
		return h.store.ByFingerprint(hexPart)
	}
	if isHex(search) {
		return h.store.ByFingerprint(search)
	}
	return h.store.Lookup(search)
}

func uidString(p packet.Packet) string {
	if uid, ok := p.(*packet.UserID); ok {
		return uid.Id
	}
	return ""
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
