// Package gateway 转发层：把已认证、已放行的请求转发到上游处理服务
//
// 上游是一个 FastAPI 兼容的文档处理服务（上传、抽取、RAG 问答、EDGAR
// 财报数据），本层视其为不透明协作方，只做 1:1 转发加少量改写：
// upload 重打包 multipart 并注入 user_id，query 向 JSON body 合并
// user_id，preview 做二进制透传，其余路由原样转发。
// 单次尝试，不重试，不熔断。
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// upstreamTimeout 上游调用超时
// 取值宽松：下游的抽取/RAG 属于长耗时处理
const upstreamTimeout = 300 * time.Second

// Client 上游服务客户端
//
// 显式依赖注入，无全局可变状态；调用方身份逐请求从 request context
// 读取后显式传参，多个并发请求之间不共享任何认证头。
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient 创建上游客户端
// baseURL 已由 config 归一化（去尾部斜杠、loopback 强制 http）
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: upstreamTimeout},
	}
}

// upstreamResponse 上游调用的类型化结果
//
// 与传输层错误严格二分：
//   - 上游返回了 HTTP 响应（含 4xx/5xx）→ (*upstreamResponse, nil)，状态和响应体原样转发给客户端
//   - 连接失败/超时等传输层错误 → (nil, err)，由调用方合成 502
type upstreamResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// ContentType 返回上游响应的 Content-Type（缺省 application/octet-stream）
func (r *upstreamResponse) ContentType() string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// do 发起一次上游调用（单次尝试）
func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*upstreamResponse, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("upstream service URL not configured")
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &upstreamResponse{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}
