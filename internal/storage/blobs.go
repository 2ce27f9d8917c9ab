// Copyright (C) 2021  Lukas Dietrich <lukas@lukasdietrich.com>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package storage

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/lukasdietrich/sharpmail/internal/log"
)

func init() {
	viper.SetDefault("storage.blobs.foldername", "data/blobs")
}

// Blobs is a permanent storage for attachment payloads. Keys are random
// uuids, the mapping to mails lives in the database.
type Blobs struct {
	fs afero.Fs
}

// NewBlobs creates a new blob store using configuration from viper.
//
//	storage.blobs.foldername
func NewBlobs() (*Blobs, error) {
	folderName := viper.GetString("storage.blobs.foldername")

	if err := os.MkdirAll(folderName, 0700); err != nil {
		return nil, err
	}

	return &Blobs{
		fs: afero.NewBasePathFs(afero.NewOsFs(), folderName),
	}, nil
}

// Write copies all the data from r to a blob, that is addressable by the
// returned key.
func (b *Blobs) Write(r io.Reader) (string, int64, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", -1, err
	}

	key := id.String()

	f, err := b.fs.Create(key)
	if err != nil {
		return "", -1, err
	}

	log.Debug().Str("blob", key).Msg("writing blob")

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		b.Delete(key)

		return "", -1, err
	}

	return key, size, f.Close()
}

// Reader returns a reader of a blob. The responsibility to close the reader
// is on the caller.
func (b *Blobs) Reader(key string) (io.ReadCloser, error) {
	return b.fs.Open(key)
}

// Delete removes a blob by key.
func (b *Blobs) Delete(key string) error {
	log.Debug().Str("blob", key).Msg("removing blob")
	return b.fs.Remove(key)
}
