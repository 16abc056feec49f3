/*
 * Copyright 2025 SREDiag Authors
 * Copyright 2023 CloudWeGo Authors
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

package shm

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// RegionDetail is the decoded header of a region file.
type RegionDetail struct {
	Path          string `json:"path" yaml:"path"`
	Size          int    `json:"size" yaml:"size"`
	State         State  `json:"state" yaml:"state"`
	ContentLength uint64 `json:"content_length" yaml:"content_length"`
}

// ReadRegionDetail decodes the header of the region file at path without mapping it.
func ReadRegionDetail(path string) (RegionDetail, error) {
	mem, err := os.ReadFile(path)
	if err != nil {
		return RegionDetail{}, err
	}
	if len(mem) < HeaderSize {
		return RegionDetail{}, fmt.Errorf("%s: %d bytes is shorter than the %d byte header", path, len(mem), HeaderSize)
	}
	d := RegionDetail{
		Path:          path,
		Size:          len(mem),
		State:         StatePopulated,
		ContentLength: binary.LittleEndian.Uint64(mem[contentLengthOffset:payloadOffset]),
	}
	if mem[dirtyBitOffset] == ZeroByte {
		d.State = StateFresh
	}
	return d, nil
}

// DebugRegionDetail prints the header of the region file at path.
func DebugRegionDetail(w io.Writer, path string) error {
	d, err := ReadRegionDetail(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "path:%s size:%d state:%s content_length:%d payload_capacity:%d\n",
		d.Path, d.Size, d.State, d.ContentLength, d.Size-HeaderSize)
	return err
}
