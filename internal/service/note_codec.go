package service

import (
	"noteguard-be/internal/dto"
	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/pkg/cipher"
)

// noteCodec moves note text across the storage boundary. Entities handed
// to repositories only ever carry ciphertext.
type noteCodec struct {
	cipher cipher.Cipher
}

func (c noteCodec) seal(note *entity.Note, title, content string) error {
	sealedTitle, err := c.cipher.Encrypt(title)
	if err != nil {
		return apperror.Internal("failed to encrypt note", err)
	}
	sealedContent, err := c.cipher.Encrypt(content)
	if err != nil {
		return apperror.Internal("failed to encrypt note", err)
	}
	note.Title = sealedTitle
	note.Content = sealedContent
	return nil
}

func (c noteCodec) open(note *entity.Note) (title, content string, err error) {
	title, err = c.cipher.Decrypt(note.Title)
	if err != nil {
		return "", "", apperror.Decryption("note could not be decrypted", err)
	}
	content, err = c.cipher.Decrypt(note.Content)
	if err != nil {
		return "", "", apperror.Decryption("note could not be decrypted", err)
	}
	return title, content, nil
}

func toNoteResponse(note *entity.Note, title, content string) *dto.NoteResponse {
	return &dto.NoteResponse{
		Id:                  note.Id,
		OwnerId:             note.OwnerId,
		Title:               title,
		Content:             content,
		CreatedAt:           note.CreatedAt,
		UpdatedAt:           note.UpdatedAt,
		ExpirationTime:      note.ExpirationTime,
		ShareToken:          note.ShareToken,
		ShareExpirationTime: note.ShareExpirationTime,
	}
}
