// Copyright © 2018 One Concern

package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/confstore/pkg/configio"
	"github.com/oneconcern/confstore/pkg/core"
	"github.com/oneconcern/confstore/pkg/core/status"
	"github.com/oneconcern/confstore/pkg/errors"
	"github.com/oneconcern/confstore/pkg/model"
	"github.com/oneconcern/confstore/pkg/repository"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

var (
	// stdin may be patched in tests
	stdin io.Reader = os.Stdin

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// newService builds the configuration service from the loaded settings
func newService() (*core.Service, *zap.Logger) {
	logger, err := settings.Logger()
	if err != nil {
		wrapFatalln("building logger", err)
		return nil, nil
	}
	enc, err := settings.TextEncoding()
	if err != nil {
		wrapFatalln("resolving encoding", err)
		return nil, nil
	}

	factory, err := repository.NewFactory(settings.Root,
		repository.WithEncoding(enc),
		repository.WithDefaultBranch(settings.Branch),
		repository.WithLogger(logger),
	)
	if err != nil {
		wrapFatalln("opening repositories", err)
		return nil, nil
	}
	actions := configio.NewActions(
		configio.WithIDGenerator(settings.IDGenerator()),
		configio.WithLogger(logger),
	)
	return core.NewService(repository.NewManager(factory), actions, core.WithLogger(logger)), logger
}

// fatalFor exits with status 2 when something is not found, 1 otherwise
func fatalFor(msg string, err error) {
	if errors.Is(err, status.ErrNotFound) {
		wrapFatalWithCodef(2, "%s: %v", msg, err)
		return
	}
	wrapFatalln(msg, err)
}

// readDocument decodes a configuration document, in JSON when the file says so, in YAML otherwise
func readDocument(file string) (*model.Configuration, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, err
	}
	return decodeDocument(data, strings.EqualFold(filepath.Ext(file), ".json"))
}

func decodeDocument(data []byte, isJSON bool) (*model.Configuration, error) {
	var c model.Configuration
	if isJSON || jsoniter.Valid(data) {
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, err
		}
		return &c, nil
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
