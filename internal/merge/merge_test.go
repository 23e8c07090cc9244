package merge

import (
	"reflect"
	"testing"

	"github.com/aanand-mishra/student-records/internal/types"
)

func st(id, major string) types.Student {
	return types.Student{ID: id, Name: "Name " + id, RegistrationNumber: "20240000" + id, Major: major, DOB: "2001-01-01", GPA: 3}
}

func TestStudents(t *testing.T) {
	tests := []struct {
		name        string
		server      []types.Student
		client      []types.Student
		want        []types.Student
		wantChanged bool
	}{
		{
			name:        "client wins on conflict, server-only kept",
			server:      []types.Student{st("1", "b"), st("2", "c")},
			client:      []types.Student{st("1", "a")},
			want:        []types.Student{st("1", "a"), st("2", "c")},
			wantChanged: true,
		},
		{
			name:        "client-only appended in client order",
			server:      []types.Student{st("1", "a")},
			client:      []types.Student{st("3", "x"), st("2", "y")},
			want:        []types.Student{st("1", "a"), st("3", "x"), st("2", "y")},
			wantChanged: true,
		},
		{
			name:        "identical snapshot is unchanged",
			server:      []types.Student{st("1", "a"), st("2", "b")},
			client:      []types.Student{st("2", "b"), st("1", "a")},
			want:        []types.Student{st("1", "a"), st("2", "b")},
			wantChanged: false,
		},
		{
			name:        "records without id are dropped",
			server:      []types.Student{st("1", "a")},
			client:      []types.Student{st("", "ghost")},
			want:        []types.Student{st("1", "a")},
			wantChanged: false,
		},
		{
			name:        "repeated client id keeps the last copy",
			server:      nil,
			client:      []types.Student{st("1", "first"), st("1", "second")},
			want:        []types.Student{st("1", "second")},
			wantChanged: true,
		},
		{
			name:        "empty client",
			server:      []types.Student{st("1", "a")},
			client:      nil,
			want:        []types.Student{st("1", "a")},
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Students(tt.server, tt.client)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("merged = %+v\nwant     %+v", got, tt.want)
			}
			if changed != tt.wantChanged {
				t.Errorf("changed = %v, want %v", changed, tt.wantChanged)
			}
		})
	}
}

func TestStudentsDoesNotMutateInputs(t *testing.T) {
	server := []types.Student{st("1", "b")}
	client := []types.Student{st("1", "a")}

	Students(server, client)

	if server[0].Major != "b" || client[0].Major != "a" {
		t.Fatal("inputs were modified")
	}
}
