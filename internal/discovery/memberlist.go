// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
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

// Package discovery layers optional gossip-based peer discovery on top of
// a register daemon's static neighbor list, so that the list of other
// instances to contact need not be baked into a config file ahead of time.
package discovery

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/memberlist"
)

const shutdownTimeout = 5 * time.Second

// PeerWatcher maintains a live list of neighbor base URLs for the
// networked register, fed by a memberlist cluster's join/leave events.
// Each member is expected to advertise the HTTP address register clients
// should use in its metadata.
type PeerWatcher struct {
	list *memberlist.Memberlist
	self string

	mu    sync.RWMutex
	peers map[string]string // memberlist node name -> register base URL
}

// eventDelegate forwards memberlist's join/leave/update notifications to
// the owning PeerWatcher.
type eventDelegate struct {
	watcher *PeerWatcher
}

func (d *eventDelegate) NotifyJoin(n *memberlist.Node) {
	d.watcher.upsert(n)
}

func (d *eventDelegate) NotifyLeave(n *memberlist.Node) {
	d.watcher.mu.Lock()
	defer d.watcher.mu.Unlock()
	delete(d.watcher.peers, n.Name)
}

func (d *eventDelegate) NotifyUpdate(n *memberlist.Node) {
	d.watcher.upsert(n)
}

func (w *PeerWatcher) upsert(n *memberlist.Node) {
	if n.Name == w.self {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.peers[n.Name] = string(n.Meta)
}

// NewPeerWatcher starts a memberlist agent named name, bound to bindAddr,
// and, if joinAddrs is non-empty, attempts to join an existing cluster
// through them. registerURL is this instance's own register base URL,
// advertised to the rest of the cluster as node metadata.
func NewPeerWatcher(name, bindAddr string, bindPort int, registerURL string, joinAddrs []string) (*PeerWatcher, error) {
	watcher := &PeerWatcher{self: name, peers: make(map[string]string)}

	config := memberlist.DefaultLocalConfig()
	config.Name = name
	config.BindAddr = bindAddr
	config.BindPort = bindPort
	config.AdvertisePort = bindPort
	config.Events = &eventDelegate{watcher: watcher}
	config.Delegate = &metaDelegate{url: registerURL}

	list, err := memberlist.Create(config)
	if err != nil {
		return nil, fmt.Errorf("discovery: creating memberlist: %w", err)
	}
	watcher.list = list

	if len(joinAddrs) > 0 {
		if _, err := list.Join(joinAddrs); err != nil {
			return nil, fmt.Errorf("discovery: joining cluster: %w", err)
		}
	}

	for _, member := range list.Members() {
		watcher.upsert(member)
	}

	return watcher, nil
}

// metaDelegate advertises this instance's register base URL as memberlist
// node metadata; it implements none of memberlist.Delegate's broadcast
// machinery since peer discovery here only needs membership, not a
// gossiped payload.
type metaDelegate struct {
	url string
}

func (d *metaDelegate) NodeMeta(limit int) []byte {
	meta := d.url
	if len(meta) > limit {
		meta = meta[:limit]
	}
	return []byte(meta)
}

func (d *metaDelegate) NotifyMsg([]byte)                           {}
func (d *metaDelegate) GetBroadcasts(overhead, limit int) [][]byte { return nil }
func (d *metaDelegate) LocalState(join bool) []byte                { return nil }
func (d *metaDelegate) MergeRemoteState(buf []byte, join bool)     {}

// Peers returns the register base URLs of every currently known neighbor.
func (w *PeerWatcher) Peers() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	urls := make([]string, 0, len(w.peers))
	for _, url := range w.peers {
		if url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

// Shutdown leaves the cluster and tears down the memberlist agent.
func (w *PeerWatcher) Shutdown() error {
	if err := w.list.Leave(shutdownTimeout); err != nil {
		return fmt.Errorf("discovery: leaving cluster: %w", err)
	}
	return w.list.Shutdown()
}
