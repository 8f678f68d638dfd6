/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
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

package client

// HostDistance classifies a cluster peer relative to this client. It is
// consumed by load-balancing policies; the decoder itself never reads
// it. Exactly one of the three predicates is true for every value.
type HostDistance int

const (
	// DistanceLocal marks hosts in the client's own datacenter.
	DistanceLocal HostDistance = iota
	// DistanceRemote marks reachable hosts in other datacenters.
	DistanceRemote
	// DistanceIgnore marks hosts a policy refuses to use.
	DistanceIgnore
)

// IsLocal reports whether the host is classified local.
func (d HostDistance) IsLocal() bool { return d == DistanceLocal }

// IsRemote reports whether the host is classified remote.
func (d HostDistance) IsRemote() bool { return d == DistanceRemote }

// IsIgnore reports whether the host is to be ignored.
func (d HostDistance) IsIgnore() bool { return d == DistanceIgnore }

// String returns the distance name.
func (d HostDistance) String() string {
	switch d {
	case DistanceLocal:
		return "local"
	case DistanceRemote:
		return "remote"
	case DistanceIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}
