package util

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

type Header struct {
	Key   string
	Value string
}

var defaultClient = &fasthttp.Client{
	Name:                "dcim",
	MaxIdleConnDuration: time.Minute,
}

type Http struct {
	Url      string
	Query    map[string]string
	Body     interface{}
	Headers  []Header
	Timeout  time.Duration
	Response *fasthttp.Response
}

func NewHttp(uri string, timeout time.Duration, headers ...Header) *Http {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Http{Url: uri, Timeout: timeout, Headers: headers}
}

func (h *Http) fullURL() string {
	if len(h.Query) == 0 {
		return h.Url
	}
	values := url.Values{}
	for k, v := range h.Query {
		values.Set(k, v)
	}
	sep := "?"
	if strings.Contains(h.Url, "?") {
		sep = "&"
	}
	return h.Url + sep + values.Encode()
}

func (h *Http) do(method string) error {
	request := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(request)
	response := fasthttp.AcquireResponse()

	request.Header.SetMethod(method)
	request.SetRequestURI(h.fullURL())
	for _, header := range h.Headers {
		request.Header.Set(header.Key, header.Value)
	}
	if h.Body != nil {
		body, err := json.Marshal(h.Body)
		if err != nil {
			fasthttp.ReleaseResponse(response)
			return err
		}
		request.Header.SetContentType("application/json")
		request.SetBody(body)
	}

	if err := defaultClient.DoTimeout(request, response, h.Timeout); err != nil {
		fasthttp.ReleaseResponse(response)
		return err
	}
	if response.StatusCode() != fasthttp.StatusOK {
		code, body := response.StatusCode(), string(response.Body())
		fasthttp.ReleaseResponse(response)
		return fmt.Errorf("%s %s 请求失败, status: %d, body: %s", method, h.Url, code, body)
	}

	h.Response = response
	return nil
}

func (h *Http) Get() error {
	return h.do(fasthttp.MethodGet)
}

func (h *Http) Post() error {
	return h.do(fasthttp.MethodPost)
}

// Result 解析响应并释放 Response
func (h *Http) Result() (*gjson.Result, error) {
	defer h.Close()
	body := h.Response.Body()
	if len(body) == 0 {
		return nil, errors.New("response body is empty")
	}
	result := gjson.ParseBytes(body)
	return &result, nil
}

func (h *Http) Close() {
	if h.Response != nil {
		fasthttp.ReleaseResponse(h.Response)
		h.Response = nil
	}
}

// HttpGet 发起 GET 请求并返回 gjson 结果
func HttpGet(uri string, query map[string]string, timeout time.Duration, headers ...Header) (*gjson.Result, error) {
	h := NewHttp(uri, timeout, headers...)
	h.Query = query
	if err := h.Get(); err != nil {
		return nil, err
	}
	return h.Result()
}
