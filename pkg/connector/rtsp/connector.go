/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package rtsp is the direct-backend connector for cameras exposing an RTSP
// endpoint. The authenticated path negotiates RTSPS; the unauthenticated path
// uses plain RTSP.
package rtsp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/bluenviron/gortsplib/v5"
	"github.com/bluenviron/gortsplib/v5/pkg/base"
	"github.com/bluenviron/gortsplib/v5/pkg/description"
	"github.com/bluenviron/gortsplib/v5/pkg/liberrors"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
	"github.com/carverauto/camshim/pkg/session"
)

const (
	schemePlain  = "rtsp"
	schemeSecure = "rtsps"
)

var (
	errNoEndpoint  = errors.New("connection context has no endpoint")
	errBadEndpoint = errors.New("invalid endpoint")
)

// Connector dials a camera, describes its stream and hands back the open
// client as the session.
type Connector struct {
	logger logger.Logger
	dialer net.Dialer
}

var _ session.Connector = (*Connector)(nil)

func NewConnector(log logger.Logger) *Connector {
	return &Connector{logger: log}
}

// Session is an open RTSP client with the described stream.
type Session struct {
	client *gortsplib.Client
	desc   *description.Session
	media  *description.Media
}

// Description returns the stream description the camera sent.
func (s *Session) Description() *description.Session {
	return s.desc
}

// Media returns the media selected by the attempt's channel.
func (s *Session) Media() *description.Media {
	return s.media
}

func (s *Session) Close() error {
	s.client.Close()

	return nil
}

// Connect performs the RTSP handshake described by cc. It returns a
// *session.ConnectError carrying a tunnel error code for every failure it
// can classify.
func (c *Connector) Connect(ctx context.Context, cc *models.ConnectionContext) (session.Session, error) {
	u, secure, err := targetURL(cc)
	if err != nil {
		return nil, err
	}

	client := c.newClient(cc, u, secure)

	c.logger.Debug().
		Str("device_id", cc.DeviceID).
		Str("scheme", u.Scheme).
		Str("host", u.Host).
		Msg("Opening RTSP session")

	if err = client.Start(); err != nil {
		return nil, mapError(err)
	}

	stop := context.AfterFunc(ctx, client.Close)

	desc, _, err := client.Describe(u)

	if !stop() {
		client.Close()

		return nil, ctx.Err()
	}

	if err != nil {
		client.Close()

		return nil, mapError(err)
	}

	if int(cc.ChannelID) >= len(desc.Medias) {
		client.Close()

		return nil, session.NewConnectError(session.CodeChannelNotOn,
			fmt.Sprintf("channel %d not offered (%d medias)", cc.ChannelID, len(desc.Medias)))
	}

	return &Session{client: client, desc: desc, media: desc.Medias[cc.ChannelID]}, nil
}

// newClient configures the RTSP client for one attempt. MaxBufBytes sizes the
// UDP receive buffer used once media is set up over UDP.
func (c *Connector) newClient(cc *models.ConnectionContext, u *base.URL, secure bool) *gortsplib.Client {
	client := &gortsplib.Client{
		Scheme:            u.Scheme,
		Host:              u.Host,
		ReadTimeout:       cc.Timeout,
		WriteTimeout:      cc.Timeout,
		UDPReadBufferSize: int(cc.MaxBufBytes),
		DialContext:       c.dialer.DialContext,
	}

	if secure {
		client.TLSConfig = &tls.Config{
			ServerName: u.Hostname(),
			MinVersion: tls.VersionTLS12,
		}
	}

	return client
}

// targetURL builds the URL to describe. The scheme follows the attempt's
// auth: with DTLS-flagged auth material the session is RTSPS, otherwise RTSP.
func targetURL(cc *models.ConnectionContext) (*base.URL, bool, error) {
	if cc.Endpoint == "" {
		return nil, false, errNoEndpoint
	}

	raw := cc.Endpoint
	if !strings.Contains(raw, "://") {
		raw = schemePlain + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, false, fmt.Errorf("%w: %q", errBadEndpoint, cc.Endpoint)
	}

	secure := cc.AuthOverride != nil && (cc.AuthOverride.DTLS || cc.AuthOverride.ParentDTLS)

	u.Scheme = schemePlain
	if secure {
		u.Scheme = schemeSecure
	}

	u.User = nil
	if cc.Username != "" {
		u.User = url.UserPassword(cc.Username, cc.Password)
	}

	if u.Path == "" {
		u.Path = "/"
	}

	bu, err := base.ParseURL(u.String())
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", errBadEndpoint, err)
	}

	return bu, secure, nil
}

// mapError turns a client error into a coded ConnectError.
func mapError(err error) error {
	var status liberrors.ErrClientBadStatusCode
	if errors.As(err, &status) {
		return &session.ConnectError{Code: statusCode(status.Code), Message: status.Message, Err: err}
	}

	var statusPtr *liberrors.ErrClientBadStatusCode
	if errors.As(err, &statusPtr) && statusPtr != nil {
		return &session.ConnectError{Code: statusCode(statusPtr.Code), Message: statusPtr.Message, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &session.ConnectError{Code: session.CodeFailResolveHostname, Message: "resolve", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &session.ConnectError{Code: session.CodeTimeout, Message: "timeout", Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &session.ConnectError{Code: session.CodeDeviceOffline, Message: "dial", Err: err}
	}

	return err
}

func statusCode(code base.StatusCode) int {
	switch code {
	case base.StatusUnauthorized, base.StatusForbidden:
		return session.CodeAVWrongViewAccOrPwd
	case base.StatusNotFound:
		return session.CodeChannelNotOn
	case base.StatusServiceUnavailable:
		return session.CodeDeviceNotListening
	default:
		return session.CodeInvalidSID
	}
}
