package roster

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// class1A3 is the built-in roster for class 1A3, in register order.
var class1A3 = []string{
	"Hà Tâm An",
	"Vũ Ngọc Khánh An",
	"Hoàng Diệu Anh",
	"Quàng Tuấn Anh",
	"Lê Bảo Châu",
	"Trịnh Công Dũng",
	"Bùi Nhật Duy",
	"Nguyễn Nhật Duy",
	"Nguyễn Phạm Linh Đan",
	"Nguyễn Ngọc Bảo Hân",
	"Mào Trung Hiếu",
	"Nguyễn Bá Gia Hưng",
	"Vừ Gia Hưng",
	"Vừ Thị Ngọc Linh",
	"Đỗ Phan Duy Long",
	"Vừ Thành Long",
	"Vừ Bảo Ly",
	"Quàng Thị Quốc Mai",
	"Vừ Công Minh",
	"Phạm Bảo Ngọc",
	"Lò Thảo Nguyên",
	"Trình Chân Nguyên",
	"Lò Đức Phong",
	"Thào Thị Thảo",
	"Tạ Anh Thư",
	"Lò Minh Tiến",
	"Chang Trí Tuệ",
	"Cà Phương Uyên",
	"Bùi Uyển Vy",
}

const (
	teacherUsername = "giaovien"
	teacherFullName = "Giáo Viên Quản Trị"

	// seedPassword is the shared first-login password; the hash is what
	// gets stored, the app asks students to change it.
	seedPassword = "hoctap123"

	// bcrypt default cost: these hashes guard classroom accounts, and
	// seeding 30 of them has to finish within a server boot.
	seedBcryptCost = bcrypt.DefaultCost
)

// Seed populates an empty directory with class 1A3 and its teacher.
// A non-empty directory is left alone, so restarts do not duplicate rows.
func Seed(ctx context.Context, s Store) error {
	n, err := s.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting accounts: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), seedBcryptCost)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	if err := s.insert(ctx, account{
		Student: Student{
			ID:       "gv01",
			Username: teacherUsername,
			FullName: teacherFullName,
			Role:     RoleTeacher,
			ClassID:  DefaultClassID,
		},
		PasswordHash: string(hash),
	}); err != nil {
		return fmt.Errorf("seeding teacher: %w", err)
	}

	for i, name := range class1A3 {
		id := fmt.Sprintf("hs%02d", i+1)
		if err := s.insert(ctx, account{
			Student: Student{
				ID:       id,
				Username: id,
				FullName: name,
				Role:     RoleStudent,
				ClassID:  DefaultClassID,
			},
			PasswordHash: string(hash),
		}); err != nil {
			return fmt.Errorf("seeding %s: %w", id, err)
		}
	}
	return nil
}
