package app

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
)

func Read(reader io.ReadCloser) ([]byte, error) {
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Error("closing reader", slog.Any("error", err))
		}
	}()

	content, err := io.ReadAll(reader)

	if err != nil {
		return nil, err
	}

	return content, nil
}

func ReadJSON[T any](content []byte) (*T, error) {
	var t *T
	err := json.Unmarshal(content, &t)

	if err != nil {
		return nil, err
	} else if t == nil {
		return nil, errors.New("empty json content error")
	}

	return t, nil
}
