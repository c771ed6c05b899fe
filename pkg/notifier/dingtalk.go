package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"dcim/pkg/core/config"
	errorc "dcim/pkg/core/err"
	"dcim/pkg/core/util"

	"go.uber.org/zap"
)

const dingTalkTitleTemplate = "【{{.Level}}】{{.Title}}"

const dingTalkContentTemplate = `### {{.Title}}

- **告警级别**: {{.Level}}
- **触发时间**: {{formatTime .CreatedAt}}

{{.Content}}
{{if .Labels}}
{{range $key, $value := .Labels}}- **{{$key}}**: {{$value}}
{{end}}{{end}}`

var dingTalkTemplates = template.Must(template.New("title").Funcs(template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	},
}).Parse(dingTalkTitleTemplate))

func init() {
	template.Must(dingTalkTemplates.New("content").Parse(dingTalkContentTemplate))
}

// DingTalkNotifier 钉钉自定义机器人，配置了 secret 时加签
type DingTalkNotifier struct {
	cfg    config.NotifierConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewDingTalkNotifier(cfg config.NotifierConfig, logger *zap.Logger) *DingTalkNotifier {
	return &DingTalkNotifier{cfg: cfg, logger: logger.Named("notifier").With(zap.String("name", cfg.Name)), now: time.Now}
}

func (d *DingTalkNotifier) Name() string { return d.cfg.Name }

func (d *DingTalkNotifier) Type() string { return TypeDingTalk }

func (d *DingTalkNotifier) Send(ctx context.Context, n *Notification) error {
	var title, content bytes.Buffer
	if err := dingTalkTemplates.ExecuteTemplate(&title, "title", n); err != nil {
		return errorc.New("渲染钉钉标题失败", err).DeliveryFailure()
	}
	if err := dingTalkTemplates.ExecuteTemplate(&content, "content", n); err != nil {
		return errorc.New("渲染钉钉内容失败", err).DeliveryFailure()
	}

	body := map[string]interface{}{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"title": title.String(),
			"text":  content.String(),
		},
	}
	if d.cfg.AtAll {
		body["at"] = map[string]interface{}{"isAtAll": true}
	} else if len(d.cfg.AtMobiles) > 0 {
		body["at"] = map[string]interface{}{"atMobiles": d.cfg.AtMobiles}
	}

	req := util.NewHttp(d.cfg.URL, timeoutFor(ctx, d.cfg.Timeout))
	req.Body = body
	if d.cfg.Secret != "" {
		req.Query = d.sign()
	}
	if err := req.Post(); err != nil {
		return errorc.New("钉钉通知发送失败", err).DeliveryFailure()
	}
	result, err := req.Result()
	if err != nil {
		return errorc.New("解析钉钉响应失败", err).DeliveryFailure()
	}
	if code := result.Get("errcode").Int(); code != 0 {
		return errorc.New(fmt.Sprintf("钉钉接口返回错误 %d: %s", code, result.Get("errmsg").String()), nil).DeliveryFailure()
	}

	d.logger.Debug("钉钉通知发送成功", zap.String("id", n.ID), zap.String("title", title.String()))
	return nil
}

// sign 钉钉加签：HmacSHA256(timestamp + "\n" + secret)
func (d *DingTalkNotifier) sign() map[string]string {
	timestamp := strconv.FormatInt(d.now().UnixMilli(), 10)
	h := hmac.New(sha256.New, []byte(d.cfg.Secret))
	h.Write([]byte(timestamp + "\n" + d.cfg.Secret))
	return map[string]string{
		"timestamp": timestamp,
		"sign":      base64.StdEncoding.EncodeToString(h.Sum(nil)),
	}
}
