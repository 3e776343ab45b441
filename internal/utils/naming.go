// MIT License
//
// Copyright (c) 2025 Advanced Micro Devices, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package utils

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/eventplane/topic-operator/internal/constants"
)

const (
	// MaxKubernetesNameLength is the maximum length for Kubernetes resource names
	MaxKubernetesNameLength = 63
)

var (
	// dnsSubdomainRegex matches lowercase RFC 1123 subdomains: dot separated segments of
	// alphanumerics and hyphens, with no hyphen at either end of a segment.
	dnsSubdomainRegex = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?(\.[a-z0-9]([-a-z0-9]*[a-z0-9])?)*$`)
)

// IsValidResourceName reports whether name is accepted as a KafkaTopic name.
func IsValidResourceName(name string) bool {
	return len(name) < MaxKubernetesNameLength && dnsSubdomainRegex.MatchString(name)
}

// TopicResourceName derives the KafkaTopic name for an application identity.
//
// The readable form "events-<identity>" is used whenever it is a valid name. Otherwise the
// name becomes "evt-<md5(identity)>-<identity>", sanitized and cut to 63 characters, which
// keeps distinct identities apart even when their readable prefix is identical.
//
// The result depends on the identity only, so it can be derived again at deletion time.
func TopicResourceName(identity string) string {
	name := constants.TopicNamePrefix + identity
	if IsValidResourceName(name) {
		return name
	}

	sum := md5.Sum([]byte(identity))
	name = constants.TopicHashedNamePrefix + hex.EncodeToString(sum[:]) + "-" + identity
	name = strings.ToLower(name)

	sanitized := make([]rune, 0, MaxKubernetesNameLength)
	for _, r := range name {
		if len(sanitized) == MaxKubernetesNameLength {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			sanitized = append(sanitized, r)
		} else {
			sanitized = append(sanitized, '-')
		}
	}

	return strings.TrimRight(string(sanitized), "-")
}
