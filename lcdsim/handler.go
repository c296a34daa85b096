// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"image/jpeg"
	"image/png"
	"net/http"
)

// ServeHTTP serves a snapshot of the simulated module. PNG is the default;
// computer-drawn graphics compress better and stay sharp. JPEG can be
// selected with the "format" URL parameter for clients that insist.
//
// Refresh the page, or poll it from a script, to follow the display while
// a driver writes to it.
func (r *Renderer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		http.Error(w, "only GET is supported", http.StatusMethodNotAllowed)
		return
	}
	img := r.Render()
	switch req.URL.Query().Get("format") {
	case "", "png":
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if req.Method == http.MethodHead {
			return
		}
		if err := png.Encode(w, img); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	case "jpeg", "jpg":
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-store")
		if req.Method == http.MethodHead {
			return
		}
		if err := jpeg.Encode(w, img, nil); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
	}
}

var _ http.Handler = &Renderer{}
