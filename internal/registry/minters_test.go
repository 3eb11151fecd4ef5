package registry_test

import (
	"encoding/json"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/mocks"
	"github.com/feral-file/nft-registry/internal/registry"
)

func TestMinterAllowlistLoader_Load(t *testing.T) {
	tests := []struct {
		name         string
		setupMocks   func(*mocks.MockFileSystem, *mocks.MockJSON)
		expectedErr  string // Error message to assert, empty means no error expected
		validateFunc func(t *testing.T, reg registry.MinterRegistry)
	}{
		{
			name: "successful load with valid JSON",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("minters.json").
					Return([]byte(`{
					"minters": [
						"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
						"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
					]
				}`), nil)
				mockJSON.
					EXPECT().
					Unmarshal(gomock.Any(), gomock.Any()).
					DoAndReturn(func(data []byte, v interface{}) error {
						return json.Unmarshal(data, v)
					})
			},
			validateFunc: func(t *testing.T, reg registry.MinterRegistry) {
				assert.True(t, reg.IsMinter(alice), "lowercase entries are normalized")
				assert.True(t, reg.IsMinter(bob))
				assert.False(t, reg.IsMinter(carol))
				assert.Equal(t, []domain.Address{alice, bob}, reg.Minters())
			},
		},
		{
			name: "successful load with empty allow-list",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("minters.json").
					Return([]byte(`{}`), nil)
				mockJSON.
					EXPECT().
					Unmarshal(gomock.Any(), gomock.Any()).
					DoAndReturn(func(data []byte, v interface{}) error {
						return json.Unmarshal(data, v)
					})
			},
			validateFunc: func(t *testing.T, reg registry.MinterRegistry) {
				assert.False(t, reg.IsMinter(alice))
				assert.Empty(t, reg.Minters())
			},
		},
		{
			name: "duplicate entries collapse",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("minters.json").
					Return([]byte(`{"minters":["0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed","0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"]}`), nil)
				mockJSON.
					EXPECT().
					Unmarshal(gomock.Any(), gomock.Any()).
					DoAndReturn(func(data []byte, v interface{}) error {
						return json.Unmarshal(data, v)
					})
			},
			validateFunc: func(t *testing.T, reg registry.MinterRegistry) {
				assert.Equal(t, []domain.Address{alice}, reg.Minters())
			},
		},
		{
			name: "file read error",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("minters.json").
					Return(nil, assert.AnError)
			},
			expectedErr: "failed to read minter allow-list file",
		},
		{
			name: "JSON parse error",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				allowlistJSON := []byte(`invalid json`)
				mockFS.
					EXPECT().
					ReadFile("minters.json").
					Return(allowlistJSON, nil)
				mockJSON.
					EXPECT().
					Unmarshal(allowlistJSON, gomock.Any()).
					Return(assert.AnError)
			},
			expectedErr: "failed to parse minter allow-list JSON",
		},
		{
			name: "invalid address",
			setupMocks: func(mockFS *mocks.MockFileSystem, mockJSON *mocks.MockJSON) {
				mockFS.
					EXPECT().
					ReadFile("minters.json").
					Return([]byte(`{"minters":["0x123"]}`), nil)
				mockJSON.
					EXPECT().
					Unmarshal(gomock.Any(), gomock.Any()).
					DoAndReturn(func(data []byte, v interface{}) error {
						return json.Unmarshal(data, v)
					})
			},
			expectedErr: "invalid minter at index 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockFS := mocks.NewMockFileSystem(ctrl)
			mockJSON := mocks.NewMockJSON(ctrl)

			if tt.setupMocks != nil {
				tt.setupMocks(mockFS, mockJSON)
			}

			loader := registry.NewMinterAllowlistLoader(mockFS, mockJSON)
			reg, err := loader.Load("minters.json")

			if tt.expectedErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				assert.Nil(t, reg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, reg)
				if tt.validateFunc != nil {
					tt.validateFunc(t, reg)
				}
			}
		})
	}
}

func TestNewMinterRegistry_Empty(t *testing.T) {
	reg := registry.NewMinterRegistry(nil)
	assert.False(t, reg.IsMinter(alice))
	assert.Empty(t, reg.Minters())
}
