package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ardanlabs/powledger/business/web/errs"
)

// send is a helper function to send an HTTP request to the node.
func send(ctx context.Context, method string, path string, dataSend any, dataRecv any) error {
	url := strings.TrimSuffix(nodeURL, "/") + "/v1" + path

	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		var er errs.Response
		if err := json.Unmarshal(msg, &er); err == nil && er.Error != "" {
			return fmt.Errorf("node: %d: %s", resp.StatusCode, er.Error)
		}
		return fmt.Errorf("node: %d: %w", resp.StatusCode, errors.New(strings.TrimSpace(string(msg))))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
