package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/admin"
)

const maxUploadBytes = 32 << 20

// confirmation carries ?confirm=true into the admin managers' confirmer.
func confirmation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok := r.URL.Query().Get("confirm") == "true"
		next.ServeHTTP(w, r.WithContext(admin.WithConfirmation(r.Context(), ok)))
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.session(r).Admin.LoggedIn(r.Context()) {
			writeMessage(w, r, http.StatusUnauthorized, errorResponse{Error: "login required", Redirect: "/admin/login"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminLogin accepts JSON or a submitted login form.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			h.writeError(w, r, errBadBody)
			return
		}
		req.Username, req.Password = r.PostForm.Get("username"), r.PostForm.Get("password")
	} else if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	s := h.session(r)
	s.Lock()
	defer s.Unlock()

	if err := s.Admin.Login(r.Context(), req.Username, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redirectResponse{Redirect: "/admin/products"})
}

func (h *Handler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.Lock()
	defer s.Unlock()

	if err := s.Admin.Logout(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, redirectResponse{Redirect: "/admin/login"})
}

func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 1
	}
	return n
}

func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.session(r).Products.List(r.Context(), pageParam(r), r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AdminSearchProducts is hit once per keystroke. Only the last request of a
// burst reaches the admin service; earlier ones get 204.
func (h *Handler) AdminSearchProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.session(r).ProductSearch.Search(r.Context(), r.URL.Query().Get("q"))
	if errors.Is(err, admin.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) AdminGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.session(r).Products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	for i := range p.Images {
		p.Images[i].ImageURL = h.products.ImageURL(p.Images[i].ImageURL)
	}
	writeJSON(w, http.StatusOK, p)
}

func readUploads(r *http.Request) ([]admin.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var out []admin.Upload
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		out = append(out, admin.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return out, nil
}

func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, errBadBody)
		return
	}
	form, err := admin.ParseProductForm(r.MultipartForm.Value)
	if err != nil {
		writeMessage(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	uploads, err := readUploads(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.session(r).Products.Create(r.Context(), form, uploads)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in admin.ProductUpdate
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.session(r).Products.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).Products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminUploadImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, errBadBody)
		return
	}
	uploads, err := readUploads(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.session(r).Products.UploadImages(r.Context(), chi.URLParam(r, "id"), uploads); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminDeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).Products.DeleteImage(r.Context(), chi.URLParam(r, "imageId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.session(r).Orders.List(r.Context(), pageParam(r), q.Get("status"), q.Get("search"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) AdminSearchOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.session(r).SearchOrders(r.Context(), q.Get("status"), q.Get("q"))
	if errors.Is(err, admin.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.session(r).Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) AdminChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.session(r).Orders.ChangeStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
