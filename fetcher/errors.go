/***************************************************************
 *
 * Copyright (C) 2025, Trawl Project
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

package fetcher

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// ConnectionErrorKind enumerates the classified connection failure modes.
type ConnectionErrorKind int

const (
	ErrKindUnknown ConnectionErrorKind = iota
	ErrKindTimeout
	ErrKindHostNotFound
	ErrKindConnectionRefused
	ErrKindNetworkUnreachable
	ErrKindAuthenticationFailed
	ErrKindFTPPassiveMode
	ErrKindFTPDataChannel
	ErrKindSSHHandshake
	ErrKindSSHKeyAuth
	ErrKindPermissionDenied
	ErrKindS3AccessDenied
	ErrKindS3BucketNotFound
	ErrKindS3RegionMismatch
	ErrKindS3Timeout
)

// ConnectionError pairs a classified failure kind with an actionable message.
type ConnectionError struct {
	Kind    ConnectionErrorKind
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	return e.Message
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ClassifyConnectionError turns a raw connection failure into a specific,
// actionable message rather than surfacing the underlying error string.
func ClassifyConnectionError(err error, host string) *ConnectionError {
	errStr := strings.ToLower(err.Error())
	wrap := func(kind ConnectionErrorKind, msg string) *ConnectionError {
		return &ConnectionError{Kind: kind, Message: msg, Err: err}
	}

	// Typed checks first; string matching is the fallback for errors the
	// protocol libraries surface as plain text.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return wrap(ErrKindHostNotFound, fmt.Sprintf("Host Not Found: unable to resolve hostname %s; check the hostname and network connectivity", host))
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return wrap(ErrKindConnectionRefused, fmt.Sprintf("Connection Refused: the server at %s refused the connection; check that the service is running and the port is correct", host))
	}
	if errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH) {
		return wrap(ErrKindNetworkUnreachable, fmt.Sprintf("Network Unreachable: cannot reach %s; check your network connectivity", host))
	}
	if errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, os.ErrDeadlineExceeded) {
		return wrap(ErrKindTimeout, fmt.Sprintf("Connection Timeout: unable to connect to %s within the configured timeout", host))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return wrap(ErrKindTimeout, fmt.Sprintf("Connection Timeout: unable to connect to %s within the configured timeout", host))
	}

	switch {
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return wrap(ErrKindTimeout, fmt.Sprintf("Connection Timeout: unable to connect to %s within the configured timeout", host))
	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "name or service not known") || strings.Contains(errStr, "getaddrinfo"):
		return wrap(ErrKindHostNotFound, fmt.Sprintf("Host Not Found: unable to resolve hostname %s; check the hostname and network connectivity", host))
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "refused"):
		return wrap(ErrKindConnectionRefused, fmt.Sprintf("Connection Refused: the server at %s refused the connection; check that the service is running and the port is correct", host))
	case strings.Contains(errStr, "network is unreachable") || strings.Contains(errStr, "unreachable"):
		return wrap(ErrKindNetworkUnreachable, fmt.Sprintf("Network Unreachable: cannot reach %s; check your network connectivity", host))
	case strings.Contains(errStr, "passive mode") || strings.Contains(errStr, "pasv") || strings.Contains(errStr, "epsv"):
		return wrap(ErrKindFTPPassiveMode, fmt.Sprintf("FTP Passive Mode Error: data connection failed for %s; try disabling passive mode", host))
	case strings.Contains(errStr, "data connection"):
		return wrap(ErrKindFTPDataChannel, fmt.Sprintf("FTP Data Connection Failed: unable to establish a data channel to %s", host))
	case strings.Contains(errStr, "ssh") && (strings.Contains(errStr, "handshake") || strings.Contains(errStr, "protocol")):
		return wrap(ErrKindSSHHandshake, fmt.Sprintf("SSH Protocol Error: SSH handshake failed with %s; check SSH version compatibility", host))
	case strings.Contains(errStr, "key") && strings.Contains(errStr, "auth"):
		return wrap(ErrKindSSHKeyAuth, fmt.Sprintf("SSH Key Authentication Failed: invalid SSH key for %s", host))
	case strings.Contains(errStr, "authentication failed") || strings.Contains(errStr, "login incorrect") ||
		strings.Contains(errStr, "login failed") || strings.Contains(errStr, "unable to authenticate") ||
		strings.Contains(errStr, "530"):
		return wrap(ErrKindAuthenticationFailed, fmt.Sprintf("Authentication Failed: invalid credentials for %s; check username and password", host))
	case strings.Contains(errStr, "permission denied"):
		return wrap(ErrKindPermissionDenied, fmt.Sprintf("Permission Denied: insufficient permissions to access %s", host))
	}

	return wrap(ErrKindUnknown, fmt.Sprintf("Connection Error: %v", err))
}

// ClassifyObjectStoreError classifies object-store connection failures.
func ClassifyObjectStoreError(err error, bucket string) *ConnectionError {
	errStr := strings.ToLower(err.Error())
	wrap := func(kind ConnectionErrorKind, msg string) *ConnectionError {
		return &ConnectionError{Kind: kind, Message: msg, Err: err}
	}

	switch {
	case strings.Contains(errStr, "access denied") || strings.Contains(errStr, "accessdenied") ||
		strings.Contains(errStr, "invalidaccesskeyid") || strings.Contains(errStr, "signaturedoesnotmatch") ||
		strings.Contains(errStr, "invalid access key") || strings.Contains(errStr, "signature does not match"):
		return wrap(ErrKindS3AccessDenied, fmt.Sprintf("Object Store Authentication Failed: invalid credentials or insufficient permissions for bucket %s", bucket))
	case strings.Contains(errStr, "nosuchbucket") || strings.Contains(errStr, "no such bucket") ||
		strings.Contains(errStr, "bucket does not exist") || strings.Contains(errStr, "notfound"):
		return wrap(ErrKindS3BucketNotFound, fmt.Sprintf("Bucket Not Found: bucket %q does not exist or you lack access to it", bucket))
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "deadline exceeded"):
		return wrap(ErrKindS3Timeout, "Object Store Connection Timeout: unable to reach the object store service")
	case strings.Contains(errStr, "region"):
		return wrap(ErrKindS3RegionMismatch, fmt.Sprintf("Object Store Region Error: bucket %q is served from a different region; check the region configuration", bucket))
	}

	return wrap(ErrKindUnknown, fmt.Sprintf("Object Store Error: %v", err))
}
