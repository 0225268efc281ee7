package client

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/vera-byte/vgo-ngo-admin/pkg/model"
)

const (
	msgUnreachable = "Unable to connect to server. Check CORS configuration or if server is running."
	msgNetwork     = "Network error occurred"
	msgTimeout     = "Request timed out"
	msgCanceled    = "Request canceled"
)

// ErrNoToken 登录响应中缺少令牌
var ErrNoToken = errors.New("login response carries no token")

// transportFailure 请求未完成时的统一失败响应
func (c *apiClient) transportFailure(fullURL string, err error) *model.APIResponse {
	message := classifyTransportError(err)
	if message == msgUnreachable {
		c.logger.Warn("Backend unreachable, check that the base URL matches the backend and that it allows this origin",
			zap.String("url", fullURL), zap.Error(err))
	} else {
		c.logger.Error("Request failed", zap.String("url", fullURL), zap.Error(err))
	}
	return &model.APIResponse{Success: false, Message: message, Error: err.Error()}
}

// classifyTransportError 区分无法连接和其他传输错误
func classifyTransportError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	case errors.Is(err, context.Canceled):
		return msgCanceled
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return msgUnreachable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return msgUnreachable
	}

	text := strings.ToLower(err.Error())
	for _, hint := range []string{"connection refused", "no such host", "dial tcp", "failed to fetch"} {
		if strings.Contains(text, hint) {
			return msgUnreachable
		}
	}
	return msgNetwork
}
