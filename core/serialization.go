// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-maintained MUS serializers for the persisted types. Field order is
// the wire format; changing it breaks existing databases. Timestamps are
// stored as Unix microseconds, vectors as fixed-width little-endian floats.

// MUS serializer instances for persisted types.
var (
	IDMUS          = idMUS{}
	SpeakerTypeMUS = speakerTypeMUS{}
	DocumentMUS    = documentMUS{}
	TurnMUS        = turnMUS{}
	PackInstallMUS = packInstallMUS{}
	CheckpointMUS  = checkpointMUS{}
)

var (
	timeMicro   = timeMicroSer{}
	termSetSer  = ord.NewSliceSer[ID](IDMUS)
	vectorSer   = ord.NewSliceSer[float32](raw.Float32)
	metadataSer = ord.NewMapSer[string, string](ord.String, ord.String)
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	num, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = ID(num)
	return
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type speakerTypeMUS struct{}

func (s speakerTypeMUS) Marshal(v SpeakerType, bs []byte) (n int) {
	return varint.Int.Marshal(int(v), bs)
}

func (s speakerTypeMUS) Unmarshal(bs []byte) (v SpeakerType, n int, err error) {
	num, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	v = SpeakerType(num)
	return
}

func (s speakerTypeMUS) Size(v SpeakerType) (size int) {
	return varint.Int.Size(int(v))
}

func (s speakerTypeMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

// timeMicroSer serializes time.Time as Unix microseconds. Sub-microsecond
// precision and the time zone are not preserved.
type timeMicroSer struct{}

func (s timeMicroSer) Marshal(v time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(v.UnixMicro(), bs)
}

func (s timeMicroSer) Unmarshal(bs []byte) (v time.Time, n int, err error) {
	micro, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = time.UnixMicro(micro)
	return
}

func (s timeMicroSer) Size(v time.Time) (size int) {
	return varint.Int64.Size(v.UnixMicro())
}

func (s timeMicroSer) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

type documentMUS struct{}

func (s documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Contents, bs[n:])
	n += metadataSer.Marshal(v.Metadata, bs[n:])
	n += termSetSer.Marshal(v.Terms, bs[n:])
	n += vectorSer.Marshal(v.Vector, bs[n:])
	n += timeMicro.Marshal(v.Timestamp, bs[n:])
	n += timeMicro.Marshal(v.InsertedAt, bs[n:])
	n += timeMicro.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (s documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Contents, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = metadataSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Terms, n1, err = termSetSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = vectorSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = timeMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentMUS) Size(v Document) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Contents)
	size += metadataSer.Size(v.Metadata)
	size += termSetSer.Size(v.Terms)
	size += vectorSer.Size(v.Vector)
	size += timeMicro.Size(v.Timestamp)
	size += timeMicro.Size(v.InsertedAt)
	size += timeMicro.Size(v.UpdatedAt)
	return
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = metadataSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = termSetSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for range 3 {
		n1, err = timeMicro.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

type turnMUS struct{}

func (s turnMUS) Marshal(v Turn, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += SpeakerTypeMUS.Marshal(v.Speaker, bs[n:])
	n += ord.String.Marshal(v.Contents, bs[n:])
	n += timeMicro.Marshal(v.Timestamp, bs[n:])
	n += timeMicro.Marshal(v.InsertedAt, bs[n:])
	n += timeMicro.Marshal(v.UpdatedAt, bs[n:])
	n += metadataSer.Marshal(v.Metadata, bs[n:])
	return
}

func (s turnMUS) Unmarshal(bs []byte) (v Turn, n int, err error) {
	var n1 int
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Speaker, n1, err = SpeakerTypeMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Contents, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp, n1, err = timeMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = timeMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = metadataSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (s turnMUS) Size(v Turn) (size int) {
	size = IDMUS.Size(v.Id)
	size += SpeakerTypeMUS.Size(v.Speaker)
	size += ord.String.Size(v.Contents)
	size += timeMicro.Size(v.Timestamp)
	size += timeMicro.Size(v.InsertedAt)
	size += timeMicro.Size(v.UpdatedAt)
	size += metadataSer.Size(v.Metadata)
	return
}

func (s turnMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	n1, err = SpeakerTypeMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for range 3 {
		n1, err = timeMicro.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = metadataSer.Skip(bs[n:])
	n += n1
	return
}

type checkpointMUS struct{}

func (s checkpointMUS) Marshal(v Checkpoint, bs []byte) (n int) {
	n = ord.String.Marshal(v.ProcessorType, bs)
	n += timeMicro.Marshal(v.LastTimestamp, bs[n:])
	n += varint.Int.Marshal(v.Processed, bs[n:])
	n += timeMicro.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (s checkpointMUS) Unmarshal(bs []byte) (v Checkpoint, n int, err error) {
	var n1 int
	v.ProcessorType, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.LastTimestamp, n1, err = timeMicro.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Processed, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = timeMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (s checkpointMUS) Size(v Checkpoint) (size int) {
	size = ord.String.Size(v.ProcessorType)
	size += timeMicro.Size(v.LastTimestamp)
	size += varint.Int.Size(v.Processed)
	size += timeMicro.Size(v.UpdatedAt)
	return
}

func (s checkpointMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = timeMicro.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = timeMicro.Skip(bs[n:])
	n += n1
	return
}

type packInstallMUS struct{}

func (s packInstallMUS) Marshal(v PackInstall, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += ord.String.Marshal(v.Version, bs[n:])
	n += varint.Int.Marshal(v.Documents, bs[n:])
	n += timeMicro.Marshal(v.InstalledAt, bs[n:])
	return
}

func (s packInstallMUS) Unmarshal(bs []byte) (v PackInstall, n int, err error) {
	var n1 int
	v.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Version, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Documents, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InstalledAt, n1, err = timeMicro.Unmarshal(bs[n:])
	n += n1
	return
}

func (s packInstallMUS) Size(v PackInstall) (size int) {
	size = ord.String.Size(v.Name)
	size += ord.String.Size(v.Version)
	size += varint.Int.Size(v.Documents)
	size += timeMicro.Size(v.InstalledAt)
	return
}

func (s packInstallMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = timeMicro.Skip(bs[n:])
	n += n1
	return
}
