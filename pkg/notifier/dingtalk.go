package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pickupwatch/pkg/config"
	"pickupwatch/pkg/transport"
)

const dingTalkRobotURL = "https://oapi.dingtalk.com/robot/send"

// DingTalkMessage is the robot webhook payload
type DingTalkMessage struct {
	MsgType string       `json:"msgtype"`
	Text    DingTalkText `json:"text"`
}

// DingTalkText is the text section of a robot message
type DingTalkText struct {
	Content string `json:"content"`
}

// DingTalkResponse represents the response structure from DingTalk API
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// DingTalkNotifier sends messages to a DingTalk custom robot with signing enabled.
type DingTalkNotifier struct {
	config  config.DingTalkConfig
	client  *transport.Client
	baseURL string
	now     func() time.Time
}

// NewDingTalkNotifier creates a DingTalk notifier
func NewDingTalkNotifier(cfg config.DingTalkConfig, client *transport.Client) *DingTalkNotifier {
	return &DingTalkNotifier{
		config:  cfg,
		client:  client,
		baseURL: dingTalkRobotURL,
		now:     time.Now,
	}
}

func (d *DingTalkNotifier) Name() string { return "dingtalk" }

func (d *DingTalkNotifier) Configured() bool { return d.config.Configured() }

// Send posts message as a robot message of opts.MessageType (default text).
func (d *DingTalkNotifier) Send(ctx context.Context, message string, opts SendOptions) error {
	if !d.Configured() {
		return nil
	}

	msgType := opts.MessageType
	if msgType == "" {
		msgType = DefaultMessageType
	}
	payload, err := json.Marshal(DingTalkMessage{
		MsgType: msgType,
		Text:    DingTalkText{Content: message},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshalMessage, err)
	}

	timestamp := d.now().UnixMilli()
	query := url.Values{}
	query.Set("access_token", d.config.AccessToken)
	query.Set("timestamp", strconv.FormatInt(timestamp, 10))
	query.Set("sign", Sign(timestamp, d.config.SecretKey))
	requestURL := d.baseURL + "?" + query.Encode()

	resp, err := d.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("dingtalk: %w: %v", ErrSendRequest, err)
	}

	body, err := checkResponse(d.Name(), resp)
	if err != nil {
		return err
	}

	var dtResp DingTalkResponse
	if json.Unmarshal(body, &dtResp) == nil && dtResp.ErrCode != 0 {
		return fmt.Errorf("dingtalk API error (code %d): %s", dtResp.ErrCode, dtResp.ErrMsg)
	}
	return nil
}

// Sign computes the robot signature for timestamp (epoch milliseconds):
// base64(HMAC-SHA256(secret, "<timestamp>\n<secret>")). The caller query-escapes it.
func Sign(timestamp int64, secret string) string {
	stringToSign := fmt.Sprintf("%d\n%s", timestamp, secret)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
