package core

import (
	"errors"
	"testing"
)

func TestDomainErrorChecks(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		isNotFound      bool
		isAlreadyExists bool
		isStoreFault    bool
	}{
		{
			name:       "user not found",
			err:        ErrUserNotFound,
			isNotFound: true,
		},
		{
			name:            "user exists",
			err:             ErrUserExists,
			isAlreadyExists: true,
		},
		{
			name:         "store fault",
			err:          NewDomainError(ModuleUserStore, ErrorCodeStoreFault, "disk gone"),
			isStoreFault: true,
		},
		{
			name: "plain error matches nothing",
			err:  errors.New("boom"),
		},
		{
			name: "nil error matches nothing",
			err:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.isNotFound {
				t.Errorf("IsNotFound = %v, want %v", got, tt.isNotFound)
			}
			if got := IsAlreadyExists(tt.err); got != tt.isAlreadyExists {
				t.Errorf("IsAlreadyExists = %v, want %v", got, tt.isAlreadyExists)
			}
			if got := IsStoreFault(tt.err); got != tt.isStoreFault {
				t.Errorf("IsStoreFault = %v, want %v", got, tt.isStoreFault)
			}
		})
	}
}

func TestGetDomainError(t *testing.T) {
	if de := GetDomainError(ErrUserNotFound); de == nil || de.Module != ModuleUserStore {
		t.Fatalf("GetDomainError = %+v", de)
	}
	if de := GetDomainError(errors.New("boom")); de != nil {
		t.Fatalf("GetDomainError(plain) = %+v, want nil", de)
	}
	if ErrUserNotFound.Error() == "" {
		t.Fatal("Error() is empty")
	}
}
