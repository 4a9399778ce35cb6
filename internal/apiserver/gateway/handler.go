package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"

	"findoc-gateway/internal/apiserver/auth"
)

// maxUploadMemory multipart 解析的内存上限，超出部分落临时文件
const maxUploadMemory = 32 << 20

// Handler 转发层 HTTP 处理器
type Handler struct {
	client *Client
	gate   *auth.Gate
}

// NewHandler 创建转发处理器
func NewHandler(client *Client, gate *auth.Gate) *Handler {
	return &Handler{client: client, gate: gate}
}

// RegisterRoutes 注册转发路由
// 所有路由都要求认证 + is_allowed；没有管理员专属的转发路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	allowed := func(fn http.HandlerFunc) http.HandlerFunc {
		return h.gate.RequireAuth(h.gate.RequireAllowed(fn))
	}

	mux.HandleFunc("POST /route", allowed(h.Route))
	mux.HandleFunc("POST /extract", allowed(h.Extract))
	mux.HandleFunc("POST /query", allowed(h.Query))
	mux.HandleFunc("POST /upload", allowed(h.Upload))
	mux.HandleFunc("GET /status/{file_id}", allowed(h.Status))
	mux.HandleFunc("GET /pages/{file_id}", allowed(h.Pages))
	mux.HandleFunc("GET /pages/{file_id}/{page_index}/preview", allowed(h.PagePreview))
	mux.HandleFunc("GET /edgar/{ticker}", allowed(h.Edgar))
	mux.HandleFunc("GET /documents", allowed(h.Documents))
	mux.HandleFunc("GET /filters", allowed(h.Filters))
	mux.HandleFunc("DELETE /files/{file_id}", allowed(h.DeleteFile))
}

// Route 文档路由判定，JSON body 原样转发
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	h.forwardJSON(w, r, "/route")
}

// Extract 表格抽取，JSON body 原样转发
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	h.forwardJSON(w, r, "/extract")
}

// Query RAG 问答
// 上游要求 body 带 user_id，从认证身份合并进 JSON 后转发
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	body := map[string]interface{}{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		writeDetail(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON body")
		return
	}
	body["user_id"] = identity.ID

	data, err := json.Marshal(body)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
		return
	}

	res, err := h.client.do(r.Context(), http.MethodPost, "/query", nil, "application/json", bytes.NewReader(data))
	if err != nil {
		h.badGateway(w, "/query", err)
		return
	}
	h.relay(w, res)
}

// Upload 文件上传
// 把入站 multipart 重打包：file 部分 + 可选 metadata 字段，
// 并注入调用方 user_id（上游必填字段）
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	identity := auth.GetIdentity(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeDetail(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid multipart body")
		return
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		filename := header.Filename
		if filename == "" {
			filename = "file.pdf"
		}
		part, err := form.CreateFormFile("file", filename)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			writeDetail(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
			return
		}
	}

	if err := form.WriteField("user_id", identity.ID); err != nil {
		writeDetail(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
		return
	}
	if metadata := r.FormValue("metadata"); metadata != "" {
		if err := form.WriteField("metadata", metadata); err != nil {
			writeDetail(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
			return
		}
	}
	if err := form.Close(); err != nil {
		writeDetail(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
		return
	}

	res, err := h.client.do(r.Context(), http.MethodPost, "/upload", nil, form.FormDataContentType(), &buf)
	if err != nil {
		h.badGateway(w, "/upload", err)
		return
	}
	h.relay(w, res)
}

// Status 文件处理状态查询
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.forwardGet(w, r, "/status/"+r.PathValue("file_id"), nil)
}

// Pages 文件页列表
func (h *Handler) Pages(w http.ResponseWriter, r *http.Request) {
	h.forwardGet(w, r, "/pages/"+r.PathValue("file_id"), nil)
}

// PagePreview 页面预览，二进制透传（Content-Type + 原始字节）
func (h *Handler) PagePreview(w http.ResponseWriter, r *http.Request) {
	path := "/pages/" + r.PathValue("file_id") + "/" + r.PathValue("page_index") + "/preview"
	res, err := h.client.do(r.Context(), http.MethodGet, path, nil, "", nil)
	if err != nil {
		h.badGateway(w, path, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType())
	w.WriteHeader(res.Status)
	w.Write(res.Body)
}

// Edgar EDGAR 财报数据查询，query 参数透传
func (h *Handler) Edgar(w http.ResponseWriter, r *http.Request) {
	h.forwardGet(w, r, "/edgar/"+r.PathValue("ticker"), r.URL.Query())
}

// Documents 文档列表，query 参数透传
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	h.forwardGet(w, r, "/documents", r.URL.Query())
}

// Filters 可用筛选项，query 参数透传
func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	h.forwardGet(w, r, "/filters", r.URL.Query())
}

// DeleteFile 删除上游文件
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	path := "/files/" + r.PathValue("file_id")
	res, err := h.client.do(r.Context(), http.MethodDelete, path, nil, "", nil)
	if err != nil {
		h.badGateway(w, path, err)
		return
	}
	h.relay(w, res)
}

// ============================================================================
// 转发辅助
// ============================================================================

// forwardJSON 原样转发 JSON body
func (h *Handler) forwardJSON(w http.ResponseWriter, r *http.Request, path string) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "VALIDATION_ERROR", "failed to read request body")
		return
	}

	res, err := h.client.do(r.Context(), http.MethodPost, path, nil, "application/json", bytes.NewReader(data))
	if err != nil {
		h.badGateway(w, path, err)
		return
	}
	h.relay(w, res)
}

// forwardGet 转发 GET 请求
func (h *Handler) forwardGet(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	res, err := h.client.do(r.Context(), http.MethodGet, path, query, "", nil)
	if err != nil {
		h.badGateway(w, path, err)
		return
	}
	h.relay(w, res)
}

// relay 把上游响应原样转发：状态码、Content-Type、响应体
// 上游的 4xx/5xx 也走这里（错误体透传，客户端看到上游原始错误）
func (h *Handler) relay(w http.ResponseWriter, res *upstreamResponse) {
	w.Header().Set("Content-Type", res.ContentType())
	w.WriteHeader(res.Status)
	w.Write(res.Body)
}

// badGateway 传输层失败（连接拒绝、超时）合成 502 最小错误外壳
func (h *Handler) badGateway(w http.ResponseWriter, path string, err error) {
	log.Printf("[gateway] upstream %s unreachable: %v", path, err)
	writeJSON(w, http.StatusBadGateway, map[string]interface{}{
		"detail": map[string]string{"message": err.Error()},
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"detail": map[string]string{"code": code, "message": message},
	})
}
